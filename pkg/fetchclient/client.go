// Package fetchclient скачивает удалённые файлы по HTTP потоком, логируя прогресс.
package fetchclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Client interface {
	// Fetch открывает тело ответа по url; size равен -1, если сервер не сообщил длину.
	Fetch(ctx context.Context, url string) (body io.ReadCloser, size int64, err error)
}

type httpClient struct {
	c      *http.Client
	logger *zap.Logger
}

// New создаёт HTTP-клиент по умолчанию. Таймаут ограничивает только заголовки ответа:
// длинные видео качаются дольше любого разумного общего лимита.
func New(logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = 30 * time.Second

	return &httpClient{
		c:      &http.Client{Transport: transport},
		logger: logger,
	}
}

// Fetch выполняет GET и возвращает поток с телом.
func (h *httpClient) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("failed to download file: %s", resp.Status)
	}

	return newProgressReadCloser(resp.Body, h.logger.With(zap.String("url", url)), resp.ContentLength), resp.ContentLength, nil
}
