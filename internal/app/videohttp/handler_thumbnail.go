package videohttp

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/internal/media"
)

// thumbnail отдаёт JPEG-превью видео. Без генератора превью клиент уходит на сам поток.
func (s *Server) thumbnail(w http.ResponseWriter, r *http.Request) {
	path, ok := s.requireFilePath(w, r)
	if !ok {
		return
	}

	if s.Thumbnails == nil {
		if _, err := media.Stat(path); err != nil {
			s.writeError(w, err, "Failed to generate thumbnail", zap.String("path", path))
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.Redirect(w, r, "/api/videos/stream/"+url.PathEscape(path), http.StatusFound)
		return
	}

	thumb, err := s.Thumbnails.Get(r.Context(), path)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.writeError(w, err, "Failed to generate thumbnail", zap.String("path", path))
		return
	}

	s.serveFile(w, r, thumb, "Failed to generate thumbnail")
}
