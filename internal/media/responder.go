package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sir_venger/vidshelf/internal/models"
)

const cacheControl = "public, max-age=31536000, immutable"

// copyBufferSize — размер буфера при копировании тела в сокет.
const copyBufferSize = 64 << 10

// Resource описывает файл, полученный одним stat-вызовом.
type Resource struct {
	Path        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// ETag возвращает валидатор ресурса, зависящий только от размера и mtime.
func (r Resource) ETag() string {
	return ETag(r.Size, r.ModTime)
}

// ETag строит детерминированный ETag из размера и времени модификации.
func ETag(size int64, modTime time.Time) string {
	return fmt.Sprintf(`"%d-%d"`, size, modTime.UnixNano())
}

// Response — HTTP-ответ респондера: статус, заголовки и ленивое тело.
type Response struct {
	Status   int
	Header   http.Header
	Resource Resource
	Range    *ByteRange
	Body     io.ReadCloser
}

// Stat возвращает описание обычного файла по пути.
func Stat(path string) (Resource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Resource{}, fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	if !info.Mode().IsRegular() {
		return Resource{}, fmt.Errorf("%w: %s is not a file", models.ErrInvalidInput, path)
	}

	return Resource{
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: ContentType(path),
	}, nil
}

// Open готовит ответ для файла path. Пустой rangeHeader означает полный ответ 200,
// иначе — 206 с запрошенным диапазоном. Невалидный диапазон возвращает ошибку до
// открытия файла.
func Open(path, rangeHeader string) (*Response, error) {
	res, err := Stat(path)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", res.ContentType)
	header.Set("Cache-Control", cacheControl)
	header.Set("ETag", res.ETag())
	header.Set("Accept-Ranges", "bytes")

	if rangeHeader == "" {
		body, err := openBody(path, 0, res.Size)
		if err != nil {
			return nil, err
		}
		header.Set("Content-Length", strconv.FormatInt(res.Size, 10))

		return &Response{
			Status:   http.StatusOK,
			Header:   header,
			Resource: res,
			Body:     body,
		}, nil
	}

	br, err := ParseRange(rangeHeader, res.Size)
	if err != nil {
		return nil, err
	}

	body, err := openBody(path, br.Start, br.Length())
	if err != nil {
		return nil, err
	}
	header.Set("Content-Range", br.ContentRange(res.Size))
	header.Set("Content-Length", strconv.FormatInt(br.Length(), 10))

	return &Response{
		Status:   http.StatusPartialContent,
		Header:   header,
		Resource: res,
		Range:    &br,
		Body:     body,
	}, nil
}

// WriteTo пишет заголовки и тело в w, пока жив ctx. Тело закрывается всегда.
// После отправки статуса ошибка уже не меняет ответ и возвращается только для логов.
func (r *Response) WriteTo(ctx context.Context, w http.ResponseWriter) (int64, error) {
	defer r.Body.Close()

	dst := w.Header()
	for k, v := range r.Header {
		dst[k] = append([]string(nil), v...)
	}
	w.WriteHeader(r.Status)

	buf := make([]byte, copyBufferSize)
	n, err := io.CopyBuffer(w, &ctxReader{ctx: ctx, r: r.Body}, buf)
	if err != nil {
		return n, err
	}
	if want := contentLength(r.Header); want >= 0 && n != want {
		return n, fmt.Errorf("short body: wrote %d of %d bytes", n, want)
	}

	return n, nil
}

func contentLength(h http.Header) int64 {
	n, err := strconv.ParseInt(h.Get("Content-Length"), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// fileBody — однопроходное тело ответа поверх секции файла.
type fileBody struct {
	f    *os.File
	r    io.Reader
	once sync.Once
	err  error
}

func openBody(path string, offset, length int64) (*fileBody, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &fileBody{
		f: f,
		r: io.NewSectionReader(f, offset, length),
	}, nil
}

func (b *fileBody) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

// Close освобождает дескриптор; повторные вызовы безопасны.
func (b *fileBody) Close() error {
	b.once.Do(func() {
		b.err = b.f.Close()
		b.r = eofReader{}
	})
	return b.err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// ctxReader прекращает чтение с диска, как только клиент отключился.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
