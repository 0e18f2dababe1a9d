package models

import "time"

// VideoMeta — сохранённые в хранилище метаданные видеофайла, ключ — абсолютный путь.
type VideoMeta struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Size      int64     `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone возвращает копию структуры, чтобы не делиться внутренним слайсом тегов.
func (v VideoMeta) Clone() VideoMeta {
	out := v
	out.Tags = append([]string{}, v.Tags...)
	return out
}

// Video — элемент листинга каталога: файл на диске, дополненный метаданными из хранилища.
type Video struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"sizeHuman"`
	Tags      []string  `json:"tags"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FolderContent — результат листинга одного каталога.
type FolderContent struct {
	Videos      []Video  `json:"videos"`
	Folders     []string `json:"folders"`
	CurrentPath string   `json:"currentPath"`
}

// RenameResult возвращается после успешного переименования файла.
type RenameResult struct {
	NewPath  string
	NewID    string
	NewTitle string
}

// DownloadResult описывает файл, скачанный по URL в локальный каталог.
type DownloadResult struct {
	FilePath string
	Filename string
	Size     int64
}
