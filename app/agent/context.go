package agent

import (
	"fmt"
	"strings"

	"docqa/types"
)

// contextDelimiter separates source blocks in the model-facing context.
const contextDelimiter = "\n---\n"

// BuildContext renders retrieval results into the context block handed to
// the language model. Each source keeps its full chunk text; trimming for
// display happens in the answer's sources, never here.
func BuildContext(results []types.RetrievalResult) string {
	blocks := make([]string, len(results))
	for i, res := range results {
		blocks[i] = fmt.Sprintf("Source %d (relevance: %.1f%%):\n%s", i+1, res.Score*100, res.Text)
	}
	return strings.Join(blocks, contextDelimiter)
}
