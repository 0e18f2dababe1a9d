package meta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/sir_venger/vidshelf/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS videos (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	tags       TEXT NOT NULL DEFAULT '[]',
	thumbnail  TEXT NOT NULL DEFAULT '',
	duration   REAL NOT NULL DEFAULT 0,
	size       INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore — встраиваемое хранилище метаданных в одном файле.
// Время хранится в наносекундах Unix, теги — JSON-массивом.
type SQLiteStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewSQLiteStore открывает (или создаёт) базу по пути и накатывает схему.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Одно соединение: PRAGMA действуют на соединение, а запись в SQLite всё равно последовательна.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		sqliteSchema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	return &SQLiteStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(db),
	}, nil
}

// Get возвращает метаданные видео по пути.
func (s *SQLiteStore) Get(ctx context.Context, path string) (models.VideoMeta, error) {
	row := s.sb.Select(videoColumns...).
		From(videosTable).
		Where(sq.Eq{"path": path}).
		Limit(1).
		QueryRowContext(ctx)

	v, err := scanSQLiteVideo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.VideoMeta{}, models.ErrNotFound
		}
		return models.VideoMeta{}, fmt.Errorf("scan video row: %w", err)
	}

	return v, nil
}

// GetMany возвращает записи для переданных путей.
func (s *SQLiteStore) GetMany(ctx context.Context, paths []string) (map[string]models.VideoMeta, error) {
	out := make(map[string]models.VideoMeta, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	rows, err := s.sb.Select(videoColumns...).
		From(videosTable).
		Where(sq.Eq{"path": paths}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanSQLiteVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		out[v.Path] = v
	}

	return out, rows.Err()
}

// Save записывает (или обновляет) запись целиком.
func (s *SQLiteStore) Save(ctx context.Context, v models.VideoMeta) error {
	v = withTimestamps(v)
	tagsJSON, err := marshalTags(v.Tags)
	if err != nil {
		return err
	}

	_, err = s.sb.Insert(videosTable).
		Columns(videoColumns...).
		Values(v.Path, v.Title, string(tagsJSON), v.Thumbnail, v.Duration, v.Size, v.CreatedAt.UnixNano(), v.UpdatedAt.UnixNano()).
		Suffix(`
			ON CONFLICT (path) DO UPDATE
			SET title      = excluded.title,
				tags       = excluded.tags,
				thumbnail  = excluded.thumbnail,
				duration   = excluded.duration,
				size       = excluded.size,
				updated_at = excluded.updated_at`).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}

// Move переносит запись на новый путь в одной транзакции.
func (s *SQLiteStore) Move(ctx context.Context, oldPath, newPath, title string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	txb := s.sb.RunWith(tx)
	if _, err := txb.Delete(videosTable).Where(sq.Eq{"path": newPath}).ExecContext(ctx); err != nil {
		return fmt.Errorf("exec delete: %w", err)
	}
	_, err = txb.Update(videosTable).
		Set("path", newPath).
		Set("title", title).
		Set("updated_at", time.Now().UTC().UnixNano()).
		Where(sq.Eq{"path": oldPath}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("exec update: %w", err)
	}

	return tx.Commit()
}

// Delete удаляет запись по пути.
func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	_, err := s.sb.Delete(videosTable).Where(sq.Eq{"path": path}).ExecContext(ctx)
	return err
}

// Tags возвращает уникальные теги по алфавиту, разворачивая JSON через json_each.
func (s *SQLiteStore) Tags(ctx context.Context) ([]string, error) {
	rows, err := s.sb.Select("DISTINCT j.value AS tag").
		From(videosTable + ", json_each(" + videosTable + ".tags) AS j").
		OrderBy("tag").
		QueryContext(ctx)
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

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanSQLiteVideo(row sq.RowScanner) (models.VideoMeta, error) {
	var (
		v                models.VideoMeta
		tagsJSON         string
		created, updated int64
	)
	if err := row.Scan(&v.Path, &v.Title, &tagsJSON, &v.Thumbnail, &v.Duration, &v.Size, &created, &updated); err != nil {
		return models.VideoMeta{}, err
	}

	tags, err := unmarshalTags([]byte(tagsJSON))
	if err != nil {
		return models.VideoMeta{}, err
	}
	v.Tags = tags
	v.CreatedAt = time.Unix(0, created).UTC()
	v.UpdatedAt = time.Unix(0, updated).UTC()

	return v, nil
}
