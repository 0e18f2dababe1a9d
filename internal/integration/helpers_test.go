package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/sir_venger/vidshelf/internal/app/videohttp"
	"github.com/sir_venger/vidshelf/internal/config"
)

// startServer поднимает API поверх sqlite-хранилища в dataDir. Превью выключены: ffmpeg в CI нет.
func startServer(t *testing.T, dataDir string, roots ...string) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.ListenAddr = ":0"
	cfg.MetaDSN = "sqlite://" + filepath.Join(dataDir, "meta.db")
	cfg.LibraryRoots = roots
	cfg.Thumbnails.Enabled = false

	h, srv, err := videohttp.NewServer(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})

	return ts
}

func getBytes(t *testing.T, url string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return resp, b
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, b := getBytes(t, url, nil)
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("decode %s: %v (%s)", url, err, b)
		}
	}
	return resp.StatusCode
}

func sendJSON(t *testing.T, method, url string, body, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
