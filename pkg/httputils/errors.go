package httputils

import (
	"fmt"
	"net/http"
)

// HTTPErrorResponse is an error type that carries the status code and the error description
// returned by the atlas API or sent to the clients of the feature browser
type HTTPErrorResponse struct {
	StatusCode   int    `json:"-"`
	ErrorMessage string `json:"description,omitempty"`
	ErrorKey     string `json:"error,omitempty"`
}

// Error returns a string representation of the HTTPErrorResponse
func (e HTTPErrorResponse) Error() string {
	return fmt.Sprintf("Status: %v; ErrorKey: %v; ErrorMessage: %v", e.StatusCode, e.ErrorKey, e.ErrorMessage)
}

// NewHTTPError builds an HTTPErrorResponse whose key is the status text of code
func NewHTTPError(code int, format string, args ...interface{}) HTTPErrorResponse {
	return HTTPErrorResponse{
		StatusCode:   code,
		ErrorKey:     http.StatusText(code),
		ErrorMessage: fmt.Sprintf(format, args...),
	}
}
