package fetchclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFetch_StreamsBodyAndLogsCompletion(t *testing.T) {
	payload := bytes.Repeat([]byte("vid"), 10_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.InfoLevel)
	cli := New(zap.New(core))

	body, size, err := cli.Fetch(context.Background(), srv.URL+"/clip.mp4")
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), size)

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, payload, got)

	finished := logs.FilterMessage("download finished").All()
	require.Len(t, finished, 1)
	assert.EqualValues(t, len(payload), finished[0].ContextMap()["bytes"])
}

func TestFetch_ChunkedResponseHasUnknownSize(t *testing.T) {
	payload := bytes.Repeat([]byte("chunk"), 2_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		half := len(payload) / 2
		_, _ = w.Write(payload[:half])
		w.(http.Flusher).Flush()
		_, _ = w.Write(payload[half:])
	}))
	t.Cleanup(srv.Close)

	body, size, err := New(nil).Fetch(context.Background(), srv.URL+"/live.mp4")
	require.NoError(t, err)
	assert.EqualValues(t, -1, size)

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, payload, got)
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	_, _, err := New(nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
