package librarysvc

import (
	"context"

	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/internal/models"
	"github.com/sir_venger/vidshelf/pkg/fetchclient"
)

const defaultListWorkers = 8

type (
	// MetaStorage хранилище метаданных видео.
	MetaStorage interface {
		Get(ctx context.Context, path string) (models.VideoMeta, error)
		GetMany(ctx context.Context, paths []string) (map[string]models.VideoMeta, error)
		Save(ctx context.Context, v models.VideoMeta) error
		Move(ctx context.Context, oldPath, newPath, title string) error
		Delete(ctx context.Context, path string) error
		Tags(ctx context.Context) ([]string, error)
	}

	// Thumbnails — кэш превью, который нужно сбрасывать при изменении файлов.
	Thumbnails interface {
		Invalidate(path string)
	}

	// Service объединяет операции над видеотекой: листинг, теги, переименование, удаление, загрузку.
	Service interface {
		Resolve(path string) (string, error)
		List(ctx context.Context, dir string) (models.FolderContent, error)
		SetTags(ctx context.Context, id string, tags []string) (models.VideoMeta, error)
		Tags(ctx context.Context) ([]string, error)
		Rename(ctx context.Context, oldPath, newName string) (models.RenameResult, error)
		Delete(ctx context.Context, path string) error
		Download(ctx context.Context, rawURL, destDir, filename string) (models.DownloadResult, error)
	}
)

type Deps struct {
	MetaStorage MetaStorage
	Thumbnails  Thumbnails
	Fetcher     fetchclient.Client
	Roots       []string
	ListWorkers int
	Logger      *zap.Logger
}

type Library struct {
	Deps
}

// New конструирует сервис видеотеки с заданными зависимостями.
func New(deps Deps) *Library {
	if deps.ListWorkers <= 0 {
		deps.ListWorkers = defaultListWorkers
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Library{Deps: deps}
}

var _ Service = (*Library)(nil)

func (s *Library) invalidate(path string) {
	if s.Thumbnails != nil {
		s.Thumbnails.Invalidate(path)
	}
}
