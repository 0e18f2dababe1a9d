package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/vidshelf/internal/models"
)

func writeSample(t *testing.T, name string, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i * 7 % 251)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func serve(t *testing.T, path, rangeHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	resp, err := Open(path, rangeHeader)
	if err != nil {
		return rec, err
	}
	_, err = resp.WriteTo(context.Background(), rec)
	require.NoError(t, err)
	return rec, nil
}

func TestOpen_PartialContent(t *testing.T) {
	path, data := writeSample(t, "clip.mp4", 1000)

	rec, err := serve(t, path, "bytes=200-299")
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 200-299/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, cacheControl, rec.Header().Get("Cache-Control"))
	assert.Equal(t, data[200:300], rec.Body.Bytes())
}

func TestOpen_PartialContentSlices(t *testing.T) {
	path, data := writeSample(t, "clip.webm", 257)

	cases := []struct {
		header     string
		start, end int
	}{
		{"bytes=0-0", 0, 0},
		{"bytes=0-256", 0, 256},
		{"bytes=256-256", 256, 256},
		{"bytes=100-", 100, 256},
		{"bytes= 3 - 9 ", 3, 9},
	}
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			rec, err := serve(t, path, tc.header)
			require.NoError(t, err)
			assert.Equal(t, http.StatusPartialContent, rec.Code)
			assert.Equal(t, data[tc.start:tc.end+1], rec.Body.Bytes())
			assert.Equal(t, ByteRange{Start: int64(tc.start), End: int64(tc.end)}.ContentRange(257), rec.Header().Get("Content-Range"))
		})
	}
}

func TestOpen_FullContent(t *testing.T) {
	path, data := writeSample(t, "small.mkv", 42)

	rec, err := serve(t, path, "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Content-Length"))
	assert.Equal(t, "video/x-matroska", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Range"))
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestOpen_RangeNotSatisfiable(t *testing.T) {
	path, _ := writeSample(t, "clip.mp4", 500)

	for _, header := range []string{
		"bytes=0-999",
		"bytes=300-200",
		"bytes=500-",
		"bytes=abc-10",
		"bytes=10-xyz",
		"bytes=-100",
		"bytes=0-1,5-6",
		"bytes=5",
		"items=0-10",
	} {
		t.Run(header, func(t *testing.T) {
			resp, err := Open(path, header)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, models.ErrRangeNotSatisfiable)
		})
	}
}

func TestOpen_EmptyFile(t *testing.T) {
	path, _ := writeSample(t, "empty.mp4", 0)

	rec, err := serve(t, path, "")
	require.NoError(t, err)
	assert.Equal(t, "0", rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.Bytes())

	_, err = Open(path, "bytes=0-")
	assert.ErrorIs(t, err, models.ErrRangeNotSatisfiable)
}

func TestOpen_NotFoundAndDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.mp4"), "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = Open(dir, "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = Open(dir, "bytes=0-1")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestETag_StableAndChanging(t *testing.T) {
	path, _ := writeSample(t, "clip.mov", 64)

	first, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, first.Body.Close())
	second, err := Open(path, "bytes=1-2")
	require.NoError(t, err)
	require.NoError(t, second.Body.Close())
	assert.Equal(t, first.Header.Get("ETag"), second.Header.Get("ETag"))

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	touched, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, touched.Body.Close())
	assert.NotEqual(t, first.Header.Get("ETag"), touched.Header.Get("ETag"))

	require.NoError(t, os.WriteFile(path, make([]byte, 65), 0o644))
	require.NoError(t, os.Chtimes(path, later, later))
	grown, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, grown.Body.Close())
	assert.NotEqual(t, touched.Header.Get("ETag"), grown.Header.Get("ETag"))
}

func TestWriteTo_CanceledContextReleasesFile(t *testing.T) {
	path, _ := writeSample(t, "clip.avi", 4096)

	resp, err := Open(path, "")
	require.NoError(t, err)
	body := resp.Body.(*fileBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	n, err := resp.WriteTo(ctx, rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)

	_, readErr := body.f.Read(make([]byte, 1))
	assert.ErrorIs(t, readErr, os.ErrClosed)
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteTo_ClientGoneReleasesFile(t *testing.T) {
	path, _ := writeSample(t, "clip.flv", 4096)

	resp, err := Open(path, "bytes=0-2047")
	require.NoError(t, err)
	body := resp.Body.(*fileBody)

	_, err = resp.WriteTo(context.Background(), failingWriter{httptest.NewRecorder()})
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	_, readErr := body.f.Read(make([]byte, 1))
	assert.ErrorIs(t, readErr, os.ErrClosed)
}

func TestBody_SinglePass(t *testing.T) {
	path, data := writeSample(t, "clip.3gp", 10)

	resp, err := Open(path, "")
	require.NoError(t, err)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	again, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, resp.Body.Close())
	require.NoError(t, resp.Body.Close())
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "video/quicktime", ContentType("/a/B.MOV"))
	assert.Equal(t, "video/mpeg", ContentType("x.mpeg"))
	assert.Equal(t, "video/3gpp", ContentType("x.3gp"))
	assert.Equal(t, "image/jpeg", ContentType("thumb.jpg"))
	assert.Equal(t, defaultContentType, ContentType("notes.txt"))
	assert.Equal(t, defaultContentType, ContentType("noext"))

	assert.True(t, IsVideo("movie.M4V"))
	assert.False(t, IsVideo("thumb.jpg"))
}
