package videohttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/pkg/httperrors"
)

type putTagsReq struct {
	Tags json.RawMessage `json:"tags"`
}

type putTagsResp struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags"`
	Success bool     `json:"success"`
}

// putTags заменяет теги видео с идентификатором {id}.
func (s *Server) putTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req putTagsReq
	if !decodeJSON(w, r, &req) {
		return
	}
	// tags обязан быть массивом строк: null, объект или число отвергаем.
	var tags []string
	if len(req.Tags) == 0 || req.Tags[0] != '[' || json.Unmarshal(req.Tags, &tags) != nil {
		httperrors.WriteMessage(w, http.StatusBadRequest, "Tags must be an array")
		return
	}

	v, err := s.Library.SetTags(r.Context(), id, tags)
	if err != nil {
		s.writeError(w, err, "Failed to update tags", zap.String("id", id))
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, putTagsResp{
		ID:      id,
		Tags:    v.Tags,
		Success: true,
	})
}

// listTags возвращает все теги библиотеки голым JSON-массивом.
func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.Library.Tags(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to get tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}

	httperrors.WriteJSON(w, http.StatusOK, tags)
}
