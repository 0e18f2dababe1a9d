package librarysvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sir_venger/vidshelf/internal/models"
)

// SetTags заменяет теги видео; запись создаётся, если её ещё нет.
func (s *Library) SetTags(ctx context.Context, id string, tags []string) (models.VideoMeta, error) {
	path, err := DecodeID(id)
	if err != nil {
		return models.VideoMeta{}, err
	}
	if path, err = s.Resolve(path); err != nil {
		return models.VideoMeta{}, err
	}

	now := time.Now().UTC()
	v, err := s.MetaStorage.Get(ctx, path)
	switch {
	case errors.Is(err, models.ErrNotFound):
		v = models.VideoMeta{
			Path:      path,
			Title:     titleOf(path),
			CreatedAt: now,
		}
	case err != nil:
		return models.VideoMeta{}, err
	}

	v.Tags = normalizeTags(tags)
	v.UpdatedAt = now
	if err := s.MetaStorage.Save(ctx, v); err != nil {
		return models.VideoMeta{}, err
	}

	return v, nil
}

// Tags возвращает все теги библиотеки по алфавиту.
func (s *Library) Tags(ctx context.Context) ([]string, error) {
	return s.MetaStorage.Tags(ctx)
}

// normalizeTags обрезает пробелы, выбрасывает пустые значения и дубликаты, сохраняя порядок.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
