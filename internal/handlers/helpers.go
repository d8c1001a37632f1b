package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ternarybob/ostendo/internal/common"
)

const maxBodyBytes = 4 << 20

// RequireMethod validates that the request uses the specified method.
// Returns true on match, false otherwise (and writes the error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed,
			common.NewAppError(common.CodeInvalidInput, "method not allowed: "+r.Method, nil))
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteOK wraps data in the standard success envelope
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"data": data,
	})
}

// WriteError wraps an error in the standard failure envelope. The error
// code and hint are taken from the wrapped application error when
// present.
func WriteError(w http.ResponseWriter, statusCode int, err error) error {
	errBody := map[string]string{
		"code":    string(common.CodeOf(err)),
		"message": err.Error(),
	}
	if hint := common.HintOf(err); hint != "" {
		errBody["hint"] = hint
	}
	return WriteJSON(w, statusCode, map[string]interface{}{
		"ok":    false,
		"error": errBody,
	})
}

// WriteAppError maps an application error to an HTTP status and writes
// the failure envelope.
func WriteAppError(w http.ResponseWriter, err error) error {
	status := http.StatusInternalServerError
	switch common.CodeOf(err) {
	case common.CodeInvalidInput, common.CodeParseError:
		status = http.StatusBadRequest
	case common.CodeQualityGateFailed:
		status = http.StatusUnprocessableEntity
	case common.CodeModelNotAvailable:
		status = http.StatusServiceUnavailable
	}
	return WriteError(w, status, err)
}

// ReadJSONBody decodes the request body into target, bounding the read
func ReadJSONBody(r *http.Request, target interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return common.NewAppError(common.CodeInvalidInput, "failed to read request body", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return common.NewAppError(common.CodeParseError, "invalid JSON body", err)
	}
	return nil
}
