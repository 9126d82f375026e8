package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewBindingErrorResponse renders request binding failures. Field-level
// validation errors get per-field messages instead of the raw struct dump.
func NewBindingErrorResponse(err error) *Response {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on the %q rule", fe.Field(), fe.Tag()))
		}
		return NewErrorResponse(strings.Join(msgs, "; "))
	}
	return NewErrorResponse(err.Error())
}
