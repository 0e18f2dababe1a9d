package media

import (
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".flv":  "video/x-flv",
	".wmv":  "video/x-ms-wmv",
	".m4v":  "video/mp4",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".3gp":  "video/3gpp",
}

// Превью, которые генерирует сервис, отдаются тем же респондером.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ContentType возвращает MIME-тип по расширению файла без учёта регистра.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct, ok := imageTypes[ext]; ok {
		return ct
	}

	return defaultContentType
}

// IsVideo сообщает, относится ли расширение файла к известным видеоформатам.
func IsVideo(path string) bool {
	_, ok := videoTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}
