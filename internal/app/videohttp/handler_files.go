package videohttp

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/pkg/httperrors"
)

type renameReq struct {
	OldPath string `json:"oldPath"`
	NewName string `json:"newName"`
}

type renameResp struct {
	Success  bool   `json:"success"`
	NewPath  string `json:"newPath"`
	NewID    string `json:"newId"`
	NewTitle string `json:"newTitle"`
}

type deleteReq struct {
	FilePath string `json:"filePath"`
}

type deleteResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type downloadReq struct {
	URL      string `json:"url"`
	DestPath string `json:"destPath"`
	Filename string `json:"filename"`
}

type downloadResp struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
	Filename string `json:"filename"`
}

func (s *Server) renameVideo(w http.ResponseWriter, r *http.Request) {
	var req renameReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OldPath) == "" || strings.TrimSpace(req.NewName) == "" {
		httperrors.WriteMessage(w, http.StatusBadRequest, "Old path and new name are required")
		return
	}

	res, err := s.Library.Rename(r.Context(), req.OldPath, req.NewName)
	if err != nil {
		s.writeError(w, err, "Failed to rename video", zap.String("path", req.OldPath))
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, renameResp{
		Success:  true,
		NewPath:  res.NewPath,
		NewID:    res.NewID,
		NewTitle: res.NewTitle,
	})
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	var req deleteReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		httperrors.WriteMessage(w, http.StatusBadRequest, "File path is required")
		return
	}

	if err := s.Library.Delete(r.Context(), req.FilePath); err != nil {
		s.writeError(w, err, "Failed to delete video", zap.String("path", req.FilePath))
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, deleteResp{
		Success: true,
		Message: "Video deleted successfully",
	})
}

// downloadVideo скачивает удалённое видео в каталог destPath. Запрос держится до конца загрузки.
func (s *Server) downloadVideo(w http.ResponseWriter, r *http.Request) {
	var req downloadReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.DestPath) == "" {
		httperrors.WriteMessage(w, http.StatusBadRequest, "URL and destination path are required")
		return
	}

	res, err := s.Library.Download(r.Context(), req.URL, req.DestPath, req.Filename)
	if err != nil {
		s.writeError(w, err, "Failed to download video", zap.String("url", req.URL))
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, downloadResp{
		Success:  true,
		FilePath: res.FilePath,
		Filename: res.Filename,
	})
}
