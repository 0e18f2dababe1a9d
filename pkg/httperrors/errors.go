// Package httperrors переводит доменные ошибки в HTTP-ответы с JSON-телом.
package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/vidshelf/internal/models"
)

// Body — тело ответа для нестримовых ошибок.
type Body struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Status возвращает HTTP-статус для ошибки.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write отдаёт ошибку клиенту. Для 500 текст заменяется на fallback, чтобы не раскрывать
// внутренние пути; для клиентских ошибок в details уходит err.Error().
func Write(w http.ResponseWriter, err error, fallback string) {
	status := Status(err)
	body := Body{Error: fallback}
	switch status {
	case http.StatusNotFound:
		body = Body{Error: "File not found", Details: err.Error()}
	case http.StatusBadRequest:
		body = Body{Error: "Invalid input", Details: err.Error()}
	case http.StatusRequestedRangeNotSatisfiable:
		body = Body{Error: "Invalid range", Details: "Requested range not satisfiable"}
	case http.StatusConflict:
		body = Body{Error: models.ErrAlreadyExists.Error()}
	}

	WriteJSON(w, status, body)
}

// WriteMessage отдаёт клиентскую ошибку с произвольным текстом.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Body{Error: msg})
}

// WriteJSON сериализует v с указанным статусом.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
