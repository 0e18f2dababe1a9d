package librarysvc

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/vidshelf/internal/media"
	"github.com/sir_venger/vidshelf/internal/models"
)

// entry — результат stat одного элемента каталога.
type entry struct {
	name  string
	path  string
	info  fs.FileInfo
	isDir bool
}

// List читает каталог и возвращает подкаталоги и видеофайлы, дополненные тегами из хранилища.
func (s *Library) List(ctx context.Context, dir string) (models.FolderContent, error) {
	dir, err := s.Resolve(dir)
	if err != nil {
		return models.FolderContent{}, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return models.FolderContent{}, fmt.Errorf("%w: %s", models.ErrNotFound, dir)
	}
	if !info.IsDir() {
		return models.FolderContent{}, fmt.Errorf("%w: %s is not a directory", models.ErrInvalidInput, dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return models.FolderContent{}, fmt.Errorf("read dir: %w", err)
	}

	// Stat идёт по симлинкам, поэтому каждый элемент проверяем отдельно и параллельно.
	entries := make([]*entry, len(dirEntries))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.ListWorkers)
	for i, de := range dirEntries {
		i, de := i, de
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			p := filepath.Join(dir, de.Name())
			fi, err := os.Stat(p)
			if err != nil {
				// Битые ссылки и файлы, удалённые во время листинга, пропускаем.
				s.Logger.Debug("skip entry", zap.String("path", p), zap.Error(err))
				return nil
			}
			entries[i] = &entry{name: de.Name(), path: p, info: fi, isDir: fi.IsDir()}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return models.FolderContent{}, err
	}

	out := models.FolderContent{
		Videos:      []models.Video{},
		Folders:     []string{},
		CurrentPath: dir,
	}
	var paths []string
	for _, e := range entries {
		switch {
		case e == nil:
		case e.isDir:
			out.Folders = append(out.Folders, e.name)
		case e.info.Mode().IsRegular() && media.IsVideo(e.name):
			out.Videos = append(out.Videos, videoFromInfo(e.path, e.info))
			paths = append(paths, e.path)
		}
	}

	saved, err := s.MetaStorage.GetMany(ctx, paths)
	if err != nil {
		return models.FolderContent{}, fmt.Errorf("load metadata: %w", err)
	}
	for i := range out.Videos {
		if meta, ok := saved[out.Videos[i].Path]; ok {
			mergeMeta(&out.Videos[i], meta)
		}
	}

	return out, nil
}

func videoFromInfo(path string, info fs.FileInfo) models.Video {
	return models.Video{
		ID:        EncodeID(path),
		Title:     titleOf(path),
		Path:      path,
		Size:      info.Size(),
		SizeHuman: humanize.IBytes(uint64(info.Size())),
		Tags:      []string{},
		CreatedAt: info.ModTime().UTC(),
		UpdatedAt: info.ModTime().UTC(),
	}
}

func mergeMeta(v *models.Video, meta models.VideoMeta) {
	if meta.Tags != nil {
		v.Tags = append([]string{}, meta.Tags...)
	}
	if meta.Thumbnail != "" {
		v.Thumbnail = meta.Thumbnail
	}
	if meta.Duration > 0 {
		v.Duration = meta.Duration
	}
	if !meta.CreatedAt.IsZero() {
		v.CreatedAt = meta.CreatedAt
	}
}
