// Package thumbs генерирует превью видео через ffmpeg и кладёт их в каталог на диске.
// Повторные запросы к одному файлу обслуживаются одним запуском ffmpeg, общее число
// параллельных запусков ограничено. Файлы превью не вытесняются.
package thumbs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/sir_venger/vidshelf/internal/media"
)

const defaultIndexSize = 10_000

// Options — параметры генерации.
type Options struct {
	Dir        string
	FFmpegPath string
	Width      int
	Seek       string
	Workers    int
	// IndexSize ограничивает число путей, для которых помнится ключ превью (для Invalidate).
	IndexSize int
}

// Service — кэш превью поверх ffmpeg.
type Service struct {
	opts   Options
	runner Runner
	logger *zap.Logger

	sem   *semaphore.Weighted
	group singleflight.Group

	// index: путь источника -> ключ последнего выданного превью.
	index *lru.Cache[string, string]
}

// New создаёт сервис и каталог для превью.
func New(opts Options, runner Runner, logger *zap.Logger) (*Service, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("thumbnail dir is empty")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.IndexSize <= 0 {
		opts.IndexSize = defaultIndexSize
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	index, err := lru.New[string, string](opts.IndexSize)
	if err != nil {
		return nil, fmt.Errorf("create thumbnail index: %w", err)
	}

	return &Service{
		opts:   opts,
		runner: runner,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(opts.Workers)),
		index:  index,
	}, nil
}

// Key — имя превью для конкретной версии файла: путь, размер и mtime.
func Key(res media.Resource) string {
	sum := sha256.Sum256([]byte(res.Path + "\x00" + strconv.FormatInt(res.Size, 10) + "\x00" + strconv.FormatInt(res.ModTime.UnixNano(), 10)))
	return hex.EncodeToString(sum[:16])
}

// Get возвращает путь к JPEG-превью для src, генерируя его при промахе.
// Ошибки stat (нет файла, не файл) возвращаются как есть.
func (s *Service) Get(ctx context.Context, src string) (string, error) {
	res, err := media.Stat(src)
	if err != nil {
		return "", err
	}

	key := Key(res)
	out := filepath.Join(s.opts.Dir, key+".jpg")
	if exists(out) {
		s.remember(src, key)
		return out, nil
	}

	// Генерация переживает отмену первого запроса: результат всё равно ляжет в кэш.
	genCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return out, s.generate(genCtx, src, out)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		s.remember(src, key)
		return r.Val.(string), nil
	}
}

func (s *Service) generate(ctx context.Context, src, out string) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	if exists(out) {
		return nil
	}

	tmp := filepath.Join(s.opts.Dir, "."+uuid.NewString()+".jpg")
	defer os.Remove(tmp)

	scale := fmt.Sprintf("scale=%d:-1", s.opts.Width)
	attempts := [][]string{
		{"-y", "-ss", s.opts.Seek, "-i", src, "-vframes", "1", "-vf", scale, tmp},
		// Ролики короче точки seek: берём первый кадр.
		{"-y", "-i", src, "-vframes", "1", "-vf", scale, tmp},
	}

	var lastErr error
	for _, args := range attempts {
		err := s.runner.Run(ctx, s.opts.FFmpegPath, args...)
		if err == nil && nonEmpty(tmp) {
			if err := os.Rename(tmp, out); err != nil {
				return fmt.Errorf("store thumbnail: %w", err)
			}
			s.logger.Debug("thumbnail generated", zap.String("source", src), zap.String("thumbnail", out))
			return nil
		}
		if err == nil {
			err = errors.New("ffmpeg produced no frame")
		}
		lastErr = err
		s.logger.Debug("thumbnail attempt failed", zap.String("source", src), zap.Error(err))
	}

	return fmt.Errorf("generate thumbnail: %w", lastErr)
}

// Invalidate удаляет известное превью для src (после переименования или удаления файла).
func (s *Service) Invalidate(src string) {
	key, ok := s.index.Peek(src)
	if !ok {
		return
	}
	s.index.Remove(src)

	path := filepath.Join(s.opts.Dir, key+".jpg")
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("remove thumbnail", zap.String("thumbnail", path), zap.Error(err))
	}
}

// remember запоминает ключ превью для src; при переполнении забывается самый давний путь.
func (s *Service) remember(src, key string) {
	s.index.Add(src, key)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
