package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
	ContentTypeHTML = "text/html"
	ContentTypeCSS  = "text/css"
)

// WriteJSON writes v as JSON with the given status code. HTML characters are not
// escaped, so URLs containing '&' are written as-is.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Headers are already sent; nothing left to do but log.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteText writes a plain-text body.
func WriteText(w http.ResponseWriter, status int, body string) {
	Write(w, status, ContentTypeText, []byte(body))
}

// Write writes raw bytes with the given content type.
func Write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
