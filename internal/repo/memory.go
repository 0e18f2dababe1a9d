package meta

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sir_venger/vidshelf/internal/models"
)

// MemoryStore хранит метаданные только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu     sync.RWMutex
	videos map[string]models.VideoMeta
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{videos: map[string]models.VideoMeta{}}
}

// Get возвращает метаданные по пути или ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, path string) (models.VideoMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.videos[path]
	if !ok {
		return models.VideoMeta{}, models.ErrNotFound
	}
	return v.Clone(), nil
}

// GetMany возвращает найденные записи; отсутствующие пути просто пропускаются.
func (s *MemoryStore) GetMany(_ context.Context, paths []string) (map[string]models.VideoMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.VideoMeta, len(paths))
	for _, p := range paths {
		if v, ok := s.videos[p]; ok {
			out[p] = v.Clone()
		}
	}
	return out, nil
}

// Save записывает (или обновляет) запись целиком.
func (s *MemoryStore) Save(_ context.Context, v models.VideoMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v = withTimestamps(v)
	if v.Tags == nil {
		v.Tags = []string{}
	}
	s.videos[v.Path] = v.Clone()
	return nil
}

// Move переносит запись на новый путь, затирая возможную запись-сироту по newPath.
func (s *MemoryStore) Move(_ context.Context, oldPath, newPath, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Запись-сирота на новом пути затирается в любом случае, как и в SQL-хранилищах.
	delete(s.videos, newPath)
	v, ok := s.videos[oldPath]
	if !ok {
		return nil
	}
	delete(s.videos, oldPath)
	v.Path = newPath
	v.Title = title
	v.UpdatedAt = time.Now().UTC()
	s.videos[newPath] = v
	return nil
}

// Delete удаляет запись; отсутствие записи не ошибка.
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.videos, path)
	return nil
}

// Tags возвращает отсортированный список уникальных тегов.
func (s *MemoryStore) Tags(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range s.videos {
		for _, tag := range v.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
