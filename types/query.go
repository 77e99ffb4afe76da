package types

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// AskParams is the question/answer request body. The question bounds match
// what the pipeline accepts: anything shorter than 5 characters carries no
// signal, anything over 1000 blows the prompt budget.
type AskParams struct {
	Question   string `json:"question" validate:"required,min=5,max=1000"`
	MaxSources int    `json:"max_sources" validate:"omitempty,min=1,max=10"`
}

// DeleteParams is the bulk chunk deletion request body.
type DeleteParams struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid4"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *AskParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *DeleteParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(v any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errors,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}
