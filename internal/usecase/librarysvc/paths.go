package librarysvc

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sir_venger/vidshelf/internal/models"
)

// EncodeID превращает путь в идентификатор видео, пригодный для сегмента URL.
func EncodeID(path string) string {
	return base64.URLEncoding.EncodeToString([]byte(path))
}

// DecodeID принимает как URL-safe, так и стандартный base64.
func DecodeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: video id is required", models.ErrInvalidInput)
	}
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.StdEncoding, base64.RawURLEncoding, base64.RawStdEncoding} {
		if b, err := enc.DecodeString(id); err == nil && len(b) > 0 {
			return string(b), nil
		}
	}
	return "", fmt.Errorf("%w: malformed video id", models.ErrInvalidInput)
}

// Resolve проверяет, что путь абсолютный и лежит внутри одного из корней библиотеки.
// Без настроенных корней допускается любой абсолютный путь.
func (s *Library) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: path is required", models.ErrInvalidInput)
	}
	if strings.ContainsRune(path, 0) || !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: malformed path %q", models.ErrInvalidInput, path)
	}

	clean := filepath.Clean(path)
	if len(s.Roots) == 0 {
		return clean, nil
	}
	for _, root := range s.Roots {
		if within(root, clean) {
			return clean, nil
		}
	}

	return "", fmt.Errorf("%w: %s is outside the library", models.ErrInvalidInput, clean)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func titleOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
