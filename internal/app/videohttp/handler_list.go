package videohttp

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/pkg/httperrors"
)

// listVideos возвращает содержимое каталога ?path=: подкаталоги и видео.
func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	dir := strings.TrimSpace(r.URL.Query().Get("path"))
	if dir == "" {
		httperrors.WriteMessage(w, http.StatusBadRequest, "Path parameter is required")
		return
	}

	content, err := s.Library.List(r.Context(), dir)
	if err != nil {
		s.writeError(w, err, "Failed to read directory", zap.String("path", dir))
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, content)
}
