package videohttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sir_venger/vidshelf/internal/config"
	meta "github.com/sir_venger/vidshelf/internal/repo"
	"github.com/sir_venger/vidshelf/internal/thumbs"
	"github.com/sir_venger/vidshelf/internal/usecase/librarysvc"
	"github.com/sir_venger/vidshelf/pkg/fetchclient"
)

// ThumbnailProvider возвращает путь к готовому превью видео.
type ThumbnailProvider interface {
	Get(ctx context.Context, src string) (string, error)
}

type Server struct {
	Library librarysvc.Service
	// Thumbnails == nil означает, что превью отключены.
	Thumbnails ThumbnailProvider
	Logger     *zap.Logger

	closers []func() error
}

// NewServer собирает сервис видеотеки по конфигурации и возвращает готовый HTTP-обработчик.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (http.Handler, *Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := meta.Open(ctx, cfg.MetaDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open meta store: %w", err)
	}

	srv := &Server{
		Logger:  logger,
		closers: []func() error{store.Close},
	}

	thumbSvc, err := buildThumbnails(cfg, logger)
	if err != nil {
		_ = srv.Close()
		return nil, nil, err
	}

	deps := librarysvc.Deps{
		MetaStorage: store,
		Fetcher:     fetchclient.New(logger.Named("fetch")),
		Roots:       cfg.LibraryRoots,
		ListWorkers: cfg.ListWorkers,
		Logger:      logger.Named("library"),
	}
	if thumbSvc != nil {
		// Интерфейсные поля заполняются только живым сервисом, чтобы nil оставался nil.
		deps.Thumbnails = thumbSvc
		srv.Thumbnails = thumbSvc
	}
	srv.Library = librarysvc.New(deps)

	return srv.Routes(), srv, nil
}

func buildThumbnails(cfg *config.Config, logger *zap.Logger) (*thumbs.Service, error) {
	tc := cfg.Thumbnails
	if !tc.Enabled {
		return nil, nil
	}
	ffmpeg, err := exec.LookPath(tc.FFmpegPath)
	if err != nil {
		logger.Warn("ffmpeg not found, thumbnails disabled", zap.String("ffmpeg", tc.FFmpegPath), zap.Error(err))
		return nil, nil
	}

	return thumbs.New(thumbs.Options{
		Dir:        tc.Dir,
		FFmpegPath: ffmpeg,
		Width:      tc.Width,
		Seek:       tc.Seek,
		Workers:    tc.Workers,
	}, thumbs.ExecRunner{}, logger.Named("thumbs"))
}

// Routes регистрирует обработчики API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.accessLog, middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(api chi.Router) {
		api.Get("/tags", s.listTags)

		api.Route("/videos", func(vr chi.Router) {
			vr.Get("/", s.listVideos)
			vr.Get("/stream/*", s.streamVideo)
			vr.Get("/thumbnail/*", s.thumbnail)
			vr.Put("/{id}/tags", s.putTags)
			vr.Post("/rename", s.renameVideo)
			vr.Post("/delete", s.deleteVideo)
			vr.Post("/download", s.downloadVideo)
		})
	})

	return r
}

// Close освобождает ресурсы, открытые в NewServer.
func (s *Server) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
