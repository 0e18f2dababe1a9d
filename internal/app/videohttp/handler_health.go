package videohttp

import (
	"net/http"

	"github.com/sir_venger/vidshelf/pkg/httperrors"
)

type healthResp struct {
	OK bool `json:"ok"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, healthResp{OK: true})
}
