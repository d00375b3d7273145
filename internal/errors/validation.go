package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidationResponse turns a validator error into the ValidationFailed
// response body, listing each offending field.
func NewValidationResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error: "validation failed",
		Code:  "VALIDATION_FAILED",
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Fields = append(resp.Fields, FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: fieldMessage(fe),
			})
		}
	}
	return resp
}

// ValidationStatusCode is the HTTP status for ValidationFailed responses.
const ValidationStatusCode = http.StatusBadRequest

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "valid email is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
