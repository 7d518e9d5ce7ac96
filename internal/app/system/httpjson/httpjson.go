// internal/app/system/httpjson/httpjson.go

// Package httpjson holds the small JSON helpers shared by every feature
// handler: response writing, the error envelope, and request decoding with a
// body-size cap.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies. None of the API payloads are remotely
// this large; anything bigger is abuse or a client bug.
const maxBodyBytes = 1 << 20 // 1 MiB

// errorBody is the envelope for every error response.
type errorBody struct {
	Error string `json:"error"`
}

// Write encodes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK encodes v as JSON with a 200 status.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Error writes a JSON error envelope with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, errorBody{Error: message})
}

// Decode reads the request body into dst, enforcing the size cap and
// rejecting unknown fields and trailing garbage. The returned error message
// is safe to echo back to the client.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid JSON: %v", err)
		}
	}
	// A second document after the first is a malformed request.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
