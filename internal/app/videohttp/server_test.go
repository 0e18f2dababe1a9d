package videohttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	meta "github.com/sir_venger/vidshelf/internal/repo"
	"github.com/sir_venger/vidshelf/internal/usecase/librarysvc"
)

type stubFetcher struct {
	body string
}

func (f stubFetcher) Fetch(context.Context, string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader(f.body)), int64(len(f.body)), nil
}

type stubThumbnails struct {
	path string

	mu   sync.Mutex
	srcs []string
}

func (s *stubThumbnails) Get(_ context.Context, src string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.srcs = append(s.srcs, src)
	return s.path, nil
}

type testEnv struct {
	ts   *httptest.Server
	srv  *Server
	root string
}

// newTestEnv собирает сервер; opts правят его до старта, чтобы не гоняться с обработчиками.
func newTestEnv(t *testing.T, opts ...func(*testEnv)) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	e := &testEnv{
		srv: &Server{
			Library: librarysvc.New(librarysvc.Deps{
				MetaStorage: meta.NewMemoryStore(),
				Fetcher:     stubFetcher{body: "downloaded"},
				Logger:      logger,
			}),
			Logger: logger,
		},
		root: t.TempDir(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ts = httptest.NewServer(e.srv.Routes())
	t.Cleanup(e.ts.Close)

	return e
}

func (e *testEnv) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(e.root, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func (e *testEnv) get(t *testing.T, path string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (e *testEnv) send(t *testing.T, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	switch v := payload.(type) {
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.get(t, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestStream(t *testing.T) {
	e := newTestEnv(t)
	data := []byte("0123456789abcdefghij")
	p := e.write(t, "clip.mp4", data)

	resp, body := e.get(t, "/api/videos/stream"+p, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, data, body)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.NotEmpty(t, resp.Header.Get("ETag"))

	resp, body = e.get(t, "/api/videos/stream/"+url.PathEscape(p), http.Header{"Range": {"bytes=5-9"}})
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "56789", string(body))
	assert.Equal(t, "bytes 5-9/20", resp.Header.Get("Content-Range"))
	assert.Equal(t, "5", resp.Header.Get("Content-Length"))

	resp, body = e.get(t, "/api/videos/stream"+p, http.Header{"Range": {"bytes=5-"}})
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, data[5:], body)
}

func TestStream_Errors(t *testing.T) {
	e := newTestEnv(t)
	p := e.write(t, "clip.webm", make([]byte, 10))

	cases := []struct {
		name   string
		path   string
		rng    string
		status int
	}{
		{name: "end past size", path: p, rng: "bytes=0-10", status: http.StatusRequestedRangeNotSatisfiable},
		{name: "start after end", path: p, rng: "bytes=7-3", status: http.StatusRequestedRangeNotSatisfiable},
		{name: "garbage", path: p, rng: "bytes=abc-", status: http.StatusRequestedRangeNotSatisfiable},
		{name: "missing", path: filepath.Join(e.root, "nope.mp4"), status: http.StatusNotFound},
		{name: "directory", path: e.root, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.rng != "" {
				h.Set("Range", tc.rng)
			}
			resp, body := e.get(t, "/api/videos/stream"+tc.path, h)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.Contains(t, string(body), `"error"`)
		})
	}
}

func TestThumbnail_DisabledRedirectsToStream(t *testing.T) {
	e := newTestEnv(t)
	p := e.write(t, "clip.mp4", []byte("x"))

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(e.ts.URL + "/api/videos/thumbnail" + p)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/api/videos/stream/"+url.PathEscape(p), resp.Header.Get("Location"))

	resp, _ = e.get(t, "/api/videos/thumbnail"+filepath.Join(e.root, "missing.mp4"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestThumbnail_ServesGeneratedImage(t *testing.T) {
	thumbs := &stubThumbnails{}
	e := newTestEnv(t, func(e *testEnv) {
		e.srv.Thumbnails = thumbs
		thumbs.path = filepath.Join(e.root, "thumb.jpg")
	})
	src := e.write(t, "clip.mp4", []byte("video"))
	e.write(t, "thumb.jpg", []byte("jpeg-bytes"))

	resp, body := e.get(t, "/api/videos/thumbnail"+src, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", string(body))
	thumbs.mu.Lock()
	defer thumbs.mu.Unlock()
	assert.Equal(t, []string{src}, thumbs.srcs)
}

func TestListVideos(t *testing.T) {
	e := newTestEnv(t)
	p := e.write(t, "movie.mkv", make([]byte, 3))
	e.write(t, "readme.md", nil)
	require.NoError(t, os.Mkdir(filepath.Join(e.root, "season1"), 0o755))

	resp, body := e.get(t, "/api/videos?path="+url.QueryEscape(e.root), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Videos []struct {
			ID        string   `json:"id"`
			Title     string   `json:"title"`
			Path      string   `json:"path"`
			Size      int64    `json:"size"`
			SizeHuman string   `json:"sizeHuman"`
			Tags      []string `json:"tags"`
		} `json:"videos"`
		Folders     []string `json:"folders"`
		CurrentPath string   `json:"currentPath"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, e.root, got.CurrentPath)
	assert.Equal(t, []string{"season1"}, got.Folders)
	require.Len(t, got.Videos, 1)
	assert.Equal(t, librarysvc.EncodeID(p), got.Videos[0].ID)
	assert.Equal(t, "movie", got.Videos[0].Title)
	assert.Equal(t, "3 B", got.Videos[0].SizeHuman)
	assert.Equal(t, []string{}, got.Videos[0].Tags)

	resp, body = e.get(t, "/api/videos", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Path parameter is required"}`, string(body))

	resp, _ = e.get(t, "/api/videos?path="+url.QueryEscape(filepath.Join(e.root, "gone")), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTags(t *testing.T) {
	e := newTestEnv(t)
	p := e.write(t, "clip.mp4", nil)
	id := librarysvc.EncodeID(p)

	resp, out := e.send(t, http.MethodPut, "/api/videos/"+id+"/tags", map[string]any{"tags": []string{"zoo", "cats", "zoo"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, out["id"])
	assert.Equal(t, true, out["success"])
	assert.Equal(t, []any{"zoo", "cats"}, out["tags"])

	tagsResp, body := e.get(t, "/api/tags", nil)
	assert.Equal(t, http.StatusOK, tagsResp.StatusCode)
	assert.JSONEq(t, `["cats","zoo"]`, string(body))

	for _, body := range []string{`{"tags":"cats"}`, `{"tags":null}`, `{}`, `{"tags":[1,2]}`} {
		resp, out = e.send(t, http.MethodPut, "/api/videos/"+id+"/tags", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "Tags must be an array", out["error"], body)
	}

	resp, _ = e.send(t, http.MethodPut, "/api/videos/"+id+"/tags", `{"tags":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.send(t, http.MethodPut, "/api/videos/!!!/tags", `{"tags":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListTags_EmptyLibraryIsEmptyArray(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.get(t, "/api/tags", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestRenameAndDelete(t *testing.T) {
	e := newTestEnv(t)
	p := e.write(t, "old.mp4", []byte("abc"))

	resp, out := e.send(t, http.MethodPost, "/api/videos/rename", renameReq{OldPath: p, NewName: "fresh"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	newPath := filepath.Join(e.root, "fresh.mp4")
	assert.Equal(t, true, out["success"])
	assert.Equal(t, newPath, out["newPath"])
	assert.Equal(t, librarysvc.EncodeID(newPath), out["newId"])
	assert.Equal(t, "fresh", out["newTitle"])

	resp, out = e.send(t, http.MethodPost, "/api/videos/rename", renameReq{OldPath: p})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Old path and new name are required", out["error"])

	e.write(t, "taken.mp4", nil)
	resp, _ = e.send(t, http.MethodPost, "/api/videos/rename", renameReq{OldPath: newPath, NewName: "taken"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, out = e.send(t, http.MethodPost, "/api/videos/delete", deleteReq{FilePath: newPath})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Video deleted successfully", out["message"])
	assert.NoFileExists(t, newPath)

	resp, _ = e.send(t, http.MethodPost, "/api/videos/delete", deleteReq{FilePath: newPath})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.send(t, http.MethodPost, "/api/videos/delete", deleteReq{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownload(t *testing.T) {
	e := newTestEnv(t)
	dest := filepath.Join(e.root, "inbox")

	resp, out := e.send(t, http.MethodPost, "/api/videos/download", downloadReq{
		URL:      "https://example.com/v/clip.mp4",
		DestPath: dest,
		Filename: "clip.mp4",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, filepath.Join(dest, "clip.mp4"), out["filePath"])
	assert.Equal(t, "clip.mp4", out["filename"])

	data, err := os.ReadFile(filepath.Join(dest, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "downloaded", string(data))

	resp, out = e.send(t, http.MethodPost, "/api/videos/download", downloadReq{URL: "https://example.com/a.mp4"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "URL and destination path are required", out["error"])
}

func TestLibraryRootsConfinePaths(t *testing.T) {
	e := newTestEnv(t, func(e *testEnv) {
		e.srv.Library = librarysvc.New(librarysvc.Deps{
			MetaStorage: meta.NewMemoryStore(),
			Roots:       []string{e.root},
		})
	})
	outside := t.TempDir()
	p := filepath.Join(outside, "secret.mp4")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	resp, _ := e.get(t, "/api/videos/stream"+p, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = e.get(t, "/api/videos?path="+url.QueryEscape(outside), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
