package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sir_venger/vidshelf/internal/models"
)

var pgBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var videoColumns = []string{"path", "title", "tags", "thumbnail", "duration", "size", "created_at", "updated_at"}

// PGStore сохраняет метаданные в Postgres. Схему создают миграции (vidshelf migrate).
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore создаёт пул подключений к Postgres.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &PGStore{pool: pool}, nil
}

// Get возвращает метаданные видео по пути.
func (s *PGStore) Get(ctx context.Context, path string) (models.VideoMeta, error) {
	sqlStr, args, err := pgBuilder.
		Select(videoColumns...).
		From(videosTable).
		Where(sq.Eq{"path": path}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.VideoMeta{}, fmt.Errorf("build select: %w", err)
	}

	v, err := scanPGVideo(s.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoMeta{}, models.ErrNotFound
		}
		return models.VideoMeta{}, fmt.Errorf("scan video row: %w", err)
	}

	return v, nil
}

// GetMany возвращает записи для переданных путей одним запросом.
func (s *PGStore) GetMany(ctx context.Context, paths []string) (map[string]models.VideoMeta, error) {
	out := make(map[string]models.VideoMeta, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	sqlStr, args, err := pgBuilder.
		Select(videoColumns...).
		From(videosTable).
		Where(sq.Eq{"path": paths}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanPGVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		out[v.Path] = v
	}

	return out, rows.Err()
}

// Save записывает (или обновляет) запись целиком.
func (s *PGStore) Save(ctx context.Context, v models.VideoMeta) error {
	v = withTimestamps(v)
	tagsJSON, err := marshalTags(v.Tags)
	if err != nil {
		return err
	}

	sqlStr, args, err := pgBuilder.
		Insert(videosTable).
		Columns(videoColumns...).
		Values(v.Path, v.Title, tagsJSON, v.Thumbnail, v.Duration, v.Size, v.CreatedAt, v.UpdatedAt).
		Suffix(`
			ON CONFLICT (path) DO UPDATE
			SET title      = EXCLUDED.title,
				tags       = EXCLUDED.tags,
				thumbnail  = EXCLUDED.thumbnail,
				duration   = EXCLUDED.duration,
				size       = EXCLUDED.size,
				updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}

// Move переносит запись на новый путь в одной транзакции.
func (s *PGStore) Move(ctx context.Context, oldPath, newPath, title string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	delSQL, delArgs, err := pgBuilder.Delete(videosTable).Where(sq.Eq{"path": newPath}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("exec delete: %w", err)
	}

	updSQL, updArgs, err := pgBuilder.
		Update(videosTable).
		Set("path", newPath).
		Set("title", title).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"path": oldPath}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := tx.Exec(ctx, updSQL, updArgs...); err != nil {
		return fmt.Errorf("exec update: %w", err)
	}

	return tx.Commit(ctx)
}

// Delete удаляет запись по пути.
func (s *PGStore) Delete(ctx context.Context, path string) error {
	sqlStr, args, err := pgBuilder.Delete(videosTable).Where(sq.Eq{"path": path}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	_, err = s.pool.Exec(ctx, sqlStr, args...)
	return err
}

// Tags разворачивает JSONB-массивы тегов и возвращает уникальные значения по алфавиту.
func (s *PGStore) Tags(ctx context.Context) ([]string, error) {
	sqlStr, args, err := pgBuilder.
		Select("DISTINCT jsonb_array_elements_text(tags) AS tag").
		From(videosTable).
		OrderBy("tag").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}

	return out, rows.Err()
}

// Close освобождает подключения пула.
func (s *PGStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func scanPGVideo(row pgx.Row) (models.VideoMeta, error) {
	var (
		v        models.VideoMeta
		tagsJSON []byte
	)
	if err := row.Scan(&v.Path, &v.Title, &tagsJSON, &v.Thumbnail, &v.Duration, &v.Size, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return models.VideoMeta{}, err
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return models.VideoMeta{}, err
	}
	v.Tags = tags

	return v, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return b, nil
}

func unmarshalTags(b []byte) ([]string, error) {
	tags := []string{}
	if len(b) == 0 {
		return tags, nil
	}
	if err := json.Unmarshal(b, &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
