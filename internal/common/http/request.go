package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrNotAnObject  = errors.New("request body must be a JSON object")
)

// DecodeObject reads at most maxBytes of JSON from r and requires a
// single top-level object.
func DecodeObject(w http.ResponseWriter, r *http.Request, maxBytes int64) (map[string]interface{}, error) {
	defer r.Body.Close()
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	var v interface{}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return nil, ErrNotAnObject
		}
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("malformed JSON: trailing data after object")
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, ErrNotAnObject
	}
	return obj, nil
}
