package videohttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sir_venger/vidshelf/internal/models"
	"github.com/sir_venger/vidshelf/pkg/httperrors"
)

// maxJSONBody ограничивает размер JSON-запросов.
const maxJSONBody = 1 << 20

// requireFilePath достаёт путь к файлу из wildcard-сегмента и приводит его к пути библиотеки.
func (s *Server) requireFilePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, err := wildcardPath(r)
	if err == nil {
		p, err = s.Library.Resolve(p)
	}
	if err != nil {
		httperrors.Write(w, err, "Invalid path")
		return "", false
	}

	return p, true
}

// wildcardPath декодирует хвост URL после префикса маршрута.
func wildcardPath(r *http.Request) (string, error) {
	// Chi маршрутизирует по RawPath, если он есть, и тогда параметр ещё экранирован.
	p := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		decoded, err := url.PathUnescape(p)
		if err != nil {
			return "", fmt.Errorf("%w: bad path escape", models.ErrInvalidInput)
		}
		p = decoded
	}
	if p == "" {
		return "", fmt.Errorf("%w: path is required", models.ErrInvalidInput)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	return p, nil
}

// decodeJSON читает тело запроса в dst; при ошибке отвечает 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		httperrors.WriteMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}

	return true
}
