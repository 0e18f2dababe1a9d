package videohttp

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/internal/media"
	"github.com/sir_venger/vidshelf/pkg/httperrors"
)

// streamVideo отдаёт видеофайл целиком или запрошенным диапазоном байт.
func (s *Server) streamVideo(w http.ResponseWriter, r *http.Request) {
	path, ok := s.requireFilePath(w, r)
	if !ok {
		return
	}

	s.serveFile(w, r, path, "Failed to stream video")
}

// serveFile пропускает файл через респондер. Ошибки до статуса уходят клиентом как JSON,
// ошибки после — только в лог.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path, fallback string) {
	resp, err := media.Open(path, r.Header.Get("Range"))
	if err != nil {
		s.writeError(w, err, fallback, zap.String("path", path))
		return
	}

	n, err := resp.WriteTo(r.Context(), w)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		s.Logger.Debug("stream canceled by client", zap.String("path", path), zap.Int64("bytes", n))
		return
	}
	s.Logger.Warn("stream aborted", zap.String("path", path), zap.Int64("bytes", n), zap.Error(err))
}

// writeError отвечает клиенту и логирует внутренние ошибки.
func (s *Server) writeError(w http.ResponseWriter, err error, fallback string, fields ...zap.Field) {
	if httperrors.Status(err) == http.StatusInternalServerError {
		s.Logger.Error(fallback, append(fields, zap.Error(err))...)
	}
	httperrors.Write(w, err, fallback)
}
