package meta

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sir_venger/vidshelf/internal/models"
)

const videosTable = "videos"

// Store — хранилище метаданных видео с ключом по абсолютному пути.
type Store interface {
	Get(ctx context.Context, path string) (models.VideoMeta, error)
	GetMany(ctx context.Context, paths []string) (map[string]models.VideoMeta, error)
	Save(ctx context.Context, v models.VideoMeta) error
	Move(ctx context.Context, oldPath, newPath, title string) error
	Delete(ctx context.Context, path string) error
	Tags(ctx context.Context) ([]string, error)
	Close() error
}

// Open выбирает реализацию хранилища по схеме DSN.
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "memory://"):
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPGStore(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported meta dsn %q", dsn)
	}
}

// withTimestamps проставляет текущее время в незаполненные CreatedAt/UpdatedAt.
func withTimestamps(v models.VideoMeta) models.VideoMeta {
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = now
	}
	return v
}
