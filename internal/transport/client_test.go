package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/worker"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	cfg := model.DefaultConfig().HTTP
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg, server.URL+"/api/", worker.NewLimiter(0, 1))
}

func TestGet_DecodesJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dictionaries/search", r.URL.Path)
		assert.Equal(t, "teh", r.URL.Query().Get("q"))
		assert.Contains(t, r.Header.Get("User-Agent"), "srtctl")
		_, _ = fmt.Fprint(w, `{"status":"success","query":"teh"}`)
	})

	var out struct {
		Status string `json:"status"`
		Query  string `json:"query"`
	}
	err := c.Get(context.Background(), "dictionaries/search", map[string][]string{"q": {"teh"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, "teh", out.Query)
}

func TestPost_SendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "1324", in["pin"])
		_, _ = fmt.Fprint(w, `{"status":"success","count":3}`)
	})

	var out model.SaveResponse
	err := c.Post(context.Background(), "/dictionaries/correction", map[string]any{"pin": "1324"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
}

func TestNonSuccess_UniformError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"error":"Invalid PIN code"}`)
	})

	err := c.Post(context.Background(), "dictionaries/protection", map[string]string{}, nil)
	var te *errs.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusForbidden, te.Status)
	assert.Equal(t, "Invalid PIN code", te.Message)
	assert.JSONEq(t, `{"error":"Invalid PIN code"}`, string(te.Body))
}

func TestNonSuccess_PlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.GetBinary(context.Background(), "download/a.srt")
	var te *errs.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)
	assert.Equal(t, "upstream exploded", te.Message)
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c := NewClient(model.DefaultConfig().HTTP, base, nil)
	err := c.Get(context.Background(), "health", nil, nil)
	var te *errs.TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
	assert.Equal(t, errs.KindTransport, errs.Classify(err))
}

func TestInvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `not json`)
	})

	var out map[string]any
	err := c.Get(context.Background(), "health", nil, &out)
	var te *errs.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "invalid JSON response", te.Message)
	assert.Equal(t, "not json", string(te.Body))
}

func TestUploadFiles_Multipart(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.srt")
	b := filepath.Join(dir, "b.srt")
	require.NoError(t, os.WriteFile(a, []byte("1\n00:00:01,000 --> 00:00:02,000\nteh cat\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("2\n"), 0o644))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.srt", files[0].Filename)
		assert.Equal(t, "b.srt", files[1].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Contains(t, string(data), "teh cat")
		_, _ = fmt.Fprint(w, `{"status":"success","task_id":"t-1"}`)
	})

	var out model.SubmitResponse
	require.NoError(t, c.UploadFiles(context.Background(), "process", "files", []string{a, b}, &out))
	assert.Equal(t, "t-1", out.TaskID)
}

func TestUploadFiles_MissingFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	err := c.UploadFiles(context.Background(), "process", "files", []string{"/does/not/exist.srt"}, nil)
	var te *errs.TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPostForBinary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
	})

	data, err := c.PostForBinary(context.Background(), "download-multiple", map[string][]string{"filenames": {"a.srt"}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 0x4b, 0x03, 0x04}, data)
}

func TestContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Get(ctx, "tasks/x", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, errs.KindCanceled, errs.Classify(err))
}

func TestBaseURLTrimmed(t *testing.T) {
	c := NewClient(model.DefaultConfig().HTTP, "http://localhost:5002/api/", nil)
	assert.Equal(t, "http://localhost:5002/api", c.BaseURL())
	assert.Equal(t, "http://localhost:5002/api/tasks/1", c.resolve("/tasks/1"))
}

func TestOversizedBodyRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 100))
	}))
	t.Cleanup(server.Close)

	cfg := model.DefaultConfig().HTTP
	cfg.MaxBodyBytes = 10
	c := NewClient(cfg, server.URL+"/api", nil)

	data, err := c.GetBinary(context.Background(), "download/a.srt")
	assert.Nil(t, data)
	var te *errs.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusOK, te.Status)
	assert.Equal(t, "response exceeds max_body_bytes", te.Message)
}

func TestBodyAtLimitAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 10))
	}))
	t.Cleanup(server.Close)

	cfg := model.DefaultConfig().HTTP
	cfg.MaxBodyBytes = 10
	c := NewClient(cfg, server.URL+"/api", nil)

	data, err := c.GetBinary(context.Background(), "download/a.srt")
	require.NoError(t, err)
	assert.Len(t, data, 10)
}
