package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (1MB).
	MaxRequestBodySize = 1 << 20
)

// ErrBodyTooLarge is returned when the body exceeds MaxRequestBodySize.
var ErrBodyTooLarge = fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)

// ReadBody buffers the whole request body, however many chunks it arrives in,
// and closes it.
func ReadBody(r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() {
		_ = body.Close()
	}()

	data, err := io.ReadAll(body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, ErrBodyTooLarge
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return data, nil
}

// DecodeJSON buffers the request body and decodes it into T.
// Unknown fields are ignored; trailing data after the first JSON value is rejected.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var zeroValue T

	data, err := ReadBody(r)
	if err != nil {
		return zeroValue, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))

	var v T
	if err := decoder.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var unmarshalErr *json.UnmarshalTypeError

		switch {
		case errors.As(err, &syntaxErr):
			return zeroValue, fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
		case errors.As(err, &unmarshalErr):
			return zeroValue, fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
		case errors.Is(err, io.EOF):
			return zeroValue, errors.New("request body is empty")
		case errors.Is(err, io.ErrUnexpectedEOF):
			return zeroValue, errors.New("malformed JSON: unexpected end of input")
		default:
			return zeroValue, fmt.Errorf("failed to decode JSON: %w", err)
		}
	}

	if decoder.More() {
		return zeroValue, errors.New("request body contains multiple JSON values")
	}

	return v, nil
}
