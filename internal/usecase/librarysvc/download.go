package librarysvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/internal/media"
	"github.com/sir_venger/vidshelf/internal/models"
)

const defaultDownloadExt = ".mp4"

// Download скачивает видео по URL в каталог destDir. Файл пишется во временный и
// переименовывается только после полной загрузки.
func (s *Library) Download(ctx context.Context, rawURL, destDir, filename string) (models.DownloadResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.TrimSpace(destDir) == "" {
		return models.DownloadResult{}, fmt.Errorf("%w: URL and destination path are required", models.ErrInvalidInput)
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.DownloadResult{}, fmt.Errorf("%w: unsupported url %q", models.ErrInvalidInput, rawURL)
	}
	destDir, err = s.Resolve(destDir)
	if err != nil {
		return models.DownloadResult{}, err
	}

	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "downloaded-" + uuid.NewString() + downloadExt(u)
	} else if err := validateName(filename); err != nil {
		return models.DownloadResult{}, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return models.DownloadResult{}, fmt.Errorf("could not create destination directory: %w", err)
	}
	target := filepath.Join(destDir, filename)
	if _, err := os.Lstat(target); err == nil {
		return models.DownloadResult{}, models.ErrAlreadyExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return models.DownloadResult{}, fmt.Errorf("check destination: %w", err)
	}

	body, _, err := s.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return models.DownloadResult{}, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(destDir, ".download-*")
	if err != nil {
		return models.DownloadResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return models.DownloadResult{}, fmt.Errorf("download: %w", copyErr)
	}
	if closeErr != nil {
		return models.DownloadResult{}, fmt.Errorf("download: %w", closeErr)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return models.DownloadResult{}, fmt.Errorf("store download: %w", err)
	}

	s.Logger.Info("video downloaded", zap.String("url", rawURL), zap.String("path", target), zap.Int64("bytes", n))
	return models.DownloadResult{FilePath: target, Filename: filename, Size: n}, nil
}

// downloadExt берёт видеорасширение из пути URL, иначе .mp4.
func downloadExt(u *url.URL) string {
	ext := strings.ToLower(path.Ext(u.Path))
	if ext != "" && media.IsVideo(ext) {
		return ext
	}
	return defaultDownloadExt
}
