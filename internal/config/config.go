package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr       = ":8080"
	defaultMetaDSN          = "memory://"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultThumbnailDir     = "./thumbnails"
	defaultThumbnailWidth   = 400
	defaultThumbnailWorkers = 2
	defaultThumbnailSeek    = "00:00:05"
	defaultFFmpegPath       = "ffmpeg"
	defaultListWorkers      = 8
)

type Config struct {
	ListenAddr   string     `yaml:"listen_addr" json:"listen_addr"`
	MetaDSN      string     `yaml:"meta_dsn" json:"meta_dsn"`
	LibraryRoots []string   `yaml:"library_roots" json:"library_roots"`
	ListWorkers  int        `yaml:"list_workers" json:"list_workers"`
	Log          Log        `yaml:"log" json:"log"`
	Thumbnails   Thumbnails `yaml:"thumbnails" json:"thumbnails"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Thumbnails — настройки генерации превью через ffmpeg.
type Thumbnails struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Dir        string `yaml:"dir" json:"dir"`
	FFmpegPath string `yaml:"ffmpeg_path" json:"ffmpeg_path"`
	Width      int    `yaml:"width" json:"width"`
	Seek       string `yaml:"seek" json:"seek"`
	Workers    int    `yaml:"workers" json:"workers"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		ListenAddr:  defaultListenAddr,
		MetaDSN:     defaultMetaDSN,
		ListWorkers: defaultListWorkers,
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Thumbnails: Thumbnails{
			Enabled:    true,
			Dir:        defaultThumbnailDir,
			FFmpegPath: defaultFFmpegPath,
			Width:      defaultThumbnailWidth,
			Seek:       defaultThumbnailSeek,
			Workers:    defaultThumbnailWorkers,
		},
	}
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
// Пустой path означает CONFIG_PATH или ./config.yaml; отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getenv("CONFIG_PATH", "./config.yaml")
	}

	c := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("LIBRARY_ROOTS"); v != "" {
		c.LibraryRoots = splitComma(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("THUMBNAIL_DIR"); v != "" {
		c.Thumbnails.Dir = v
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		c.Thumbnails.FFmpegPath = v
	}
	if v := os.Getenv("THUMBNAILS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("THUMBNAILS_ENABLED: %w", err)
		}
		c.Thumbnails.Enabled = enabled
	}

	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is not configured")
	}
	if !supportedDSN(c.MetaDSN) {
		return fmt.Errorf("meta_dsn %q: unsupported scheme", c.MetaDSN)
	}
	for _, root := range c.LibraryRoots {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("library root %q must be absolute", root)
		}
	}
	if c.Thumbnails.Enabled {
		if c.Thumbnails.Workers <= 0 {
			return fmt.Errorf("thumbnails.workers must be > 0")
		}
		if c.Thumbnails.Width <= 0 {
			return fmt.Errorf("thumbnails.width must be > 0")
		}
	}

	return nil
}

func (c *Config) normalize() {
	c.MetaDSN = strings.TrimSpace(c.MetaDSN)
	if c.MetaDSN == "" {
		c.MetaDSN = defaultMetaDSN
	}
	if c.ListWorkers <= 0 {
		c.ListWorkers = defaultListWorkers
	}
	roots := c.LibraryRoots[:0]
	for _, root := range c.LibraryRoots {
		root = strings.TrimSpace(root)
		if root != "" {
			roots = append(roots, filepath.Clean(root))
		}
	}
	c.LibraryRoots = roots
	if c.Thumbnails.Seek == "" {
		c.Thumbnails.Seek = defaultThumbnailSeek
	}
	if c.Thumbnails.FFmpegPath == "" {
		c.Thumbnails.FFmpegPath = defaultFFmpegPath
	}
}

func supportedDSN(dsn string) bool {
	for _, prefix := range []string{"memory://", "postgres://", "postgresql://", "sqlite://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
