package types

// Config carries every runtime knob, parsed from the environment once at
// startup and passed down explicitly.
type Config struct {
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	UploadDir  string `env:"UPLOAD_DIR" envDefault:"./uploads"`

	PGHost   string `env:"PG_HOST" envDefault:"localhost"`
	PGPort   int    `env:"PG_PORT" envDefault:"5432"`
	PGUser   string `env:"PG_USER" envDefault:"postgres"`
	PGPass   string `env:"PG_PASS" envDefault:"postgres"`
	PGDBName string `env:"PG_DB_NAME" envDefault:"docqa"`

	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `env:"OPENAI_BASE_URL"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	ChatModel      string `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingDim   int    `env:"EMBEDDING_DIM" envDefault:"1536"`

	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"200"`

	SearchLimit     int     `env:"SEARCH_LIMIT" envDefault:"3"`
	SearchThreshold float64 `env:"SEARCH_THRESHOLD" envDefault:"0.3"`

	Temperature     float64 `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	MaxAnswerTokens int     `env:"LLM_MAX_TOKENS" envDefault:"1500"`

	// Header/footer crop margins in points, applied to PDFs before text
	// extraction. Zero disables cropping.
	PDFCropTop    float64 `env:"PDF_CROP_TOP" envDefault:"0"`
	PDFCropBottom float64 `env:"PDF_CROP_BOTTOM" envDefault:"0"`
}
