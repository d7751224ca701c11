package llm

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const entityNotFound = "Requested entity was not found"

// IsInvalidKey reports whether err means the credential or project behind it
// is unusable. The model API signals this as a 404 on the model resource.
func IsInvalidKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidKey) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code == http.StatusNotFound {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, entityNotFound) || strings.Contains(msg, "404")
}
