package librarysvc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/internal/models"
)

// Rename переименовывает файл в том же каталоге, сохраняя расширение, и переносит метаданные.
func (s *Library) Rename(ctx context.Context, oldPath, newName string) (models.RenameResult, error) {
	oldPath, err := s.Resolve(oldPath)
	if err != nil {
		return models.RenameResult{}, err
	}
	newName = strings.TrimSpace(newName)
	if err := validateName(newName); err != nil {
		return models.RenameResult{}, err
	}

	info, err := os.Stat(oldPath)
	if err != nil {
		return models.RenameResult{}, fmt.Errorf("%w: %s", models.ErrNotFound, oldPath)
	}
	if info.IsDir() {
		return models.RenameResult{}, fmt.Errorf("%w: %s is not a file", models.ErrInvalidInput, oldPath)
	}

	newPath := filepath.Join(filepath.Dir(oldPath), newName+filepath.Ext(oldPath))
	if _, err := os.Lstat(newPath); err == nil {
		return models.RenameResult{}, models.ErrAlreadyExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return models.RenameResult{}, fmt.Errorf("check destination: %w", err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return models.RenameResult{}, fmt.Errorf("rename: %w", err)
	}

	// Файл уже переименован: сбой хранилища оставляет запись-сироту, но не отменяет операцию.
	if err := s.MetaStorage.Move(ctx, oldPath, newPath, newName); err != nil {
		s.Logger.Error("move metadata", zap.String("from", oldPath), zap.String("to", newPath), zap.Error(err))
	}
	s.invalidate(oldPath)

	s.Logger.Info("video renamed", zap.String("from", oldPath), zap.String("to", newPath))
	return models.RenameResult{
		NewPath:  newPath,
		NewID:    EncodeID(newPath),
		NewTitle: newName,
	}, nil
}

// Delete удаляет файл с диска вместе с его метаданными и превью.
func (s *Library) Delete(ctx context.Context, path string) error {
	path, err := s.Resolve(path)
	if err != nil {
		return err
	}

	// Lstat: ссылки, каталоги и спецфайлы не удаляем, только обычные файлы.
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", models.ErrInvalidInput, path)
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", models.ErrNotFound, path)
		}
		return fmt.Errorf("delete: %w", err)
	}

	if err := s.MetaStorage.Delete(ctx, path); err != nil {
		s.Logger.Error("delete metadata", zap.String("path", path), zap.Error(err))
	}
	s.invalidate(path)

	s.Logger.Info("video deleted", zap.String("path", path))
	return nil
}

// validateName допускает только голое имя файла без разделителей каталогов.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: new name is required", models.ErrInvalidInput)
	case name == "." || name == "..":
		return fmt.Errorf("%w: invalid name %q", models.ErrInvalidInput, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: name must not contain path separators", models.ErrInvalidInput)
	}
	return nil
}
