package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/sundayezeilo/linkshort/internal/httpx"
)

// serveAsset returns a handler that reads name from the assets directory on every
// request. Any read failure, a missing file included, is a plain-text 404.
func (s *Server) serveAsset(name, contentType string) http.HandlerFunc {
	path := filepath.Join(s.config.Server.AssetsDir, name)

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.WarnContext(r.Context(), "asset not readable",
				"request_id", httpx.GetRequestID(r.Context()),
				"asset", path,
				"error", err.Error(),
			)
			httpx.WriteText(w, http.StatusNotFound, httpx.BodyNotFound)
			return
		}

		httpx.Write(w, http.StatusOK, contentType, data)
	}
}
