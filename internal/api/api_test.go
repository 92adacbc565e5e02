package api

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/fakeserver"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/transport"
)

func newService(t *testing.T, opts fakeserver.Options) (*Service, *fakeserver.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := fakeserver.New(opts)
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	client := transport.NewClient(model.DefaultConfig().HTTP, ts.URL+"/api", nil)
	return New(client), fake
}

func writeSRT(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestHealth(t *testing.T) {
	svc, _ := newService(t, fakeserver.Options{})
	h, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, fakeserver.Version, h.Version)
}

func TestDictionaryRoundTrip(t *testing.T) {
	svc, _ := newService(t, fakeserver.Options{})
	ctx := context.Background()

	resp, err := svc.SaveDictionary(ctx, model.KindCorrection, fakeserver.DefaultPIN, model.Dictionary{"teh": "the", "uh": ""})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)

	d, err := svc.Dictionary(ctx, model.KindCorrection)
	require.NoError(t, err)
	assert.Equal(t, model.Dictionary{"teh": "the", "uh": ""}, d)
}

func TestSaveDictionary_Unauthorized(t *testing.T) {
	svc, _ := newService(t, fakeserver.Options{})
	_, err := svc.SaveDictionary(context.Background(), model.KindProtection, "0000", model.Dictionary{"NASA": ""})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	var te *errs.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 403, te.Status)
}

func TestUpdateTerm_Errors(t *testing.T) {
	svc, fake := newService(t, fakeserver.Options{Correction: model.Dictionary{"teh": "the"}})
	ctx := context.Background()

	_, err := svc.UpdateTerm(ctx, model.TermMutation{PIN: "0000", Kind: model.KindCorrection, Term: "teh", Action: model.ActionDelete})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = svc.UpdateTerm(ctx, model.TermMutation{PIN: fakeserver.DefaultPIN, Kind: model.KindCorrection, Term: "nope", Action: model.ActionDelete})
	assert.ErrorIs(t, err, errs.ErrTermNotFound)

	_, err = svc.UpdateTerm(ctx, model.TermMutation{PIN: fakeserver.DefaultPIN, Kind: model.KindCorrection, Term: "teh", Action: model.ActionDelete})
	require.NoError(t, err)
	assert.Empty(t, fake.Dictionary(model.KindCorrection))
}

func TestSearch(t *testing.T) {
	svc, _ := newService(t, fakeserver.Options{
		Correction: model.Dictionary{"teh": "the"},
		Protection: model.Dictionary{"Tehran": ""},
	})

	res, err := svc.Search(context.Background(), "teh", model.ScopeProtection)
	require.NoError(t, err)
	assert.Empty(t, res.Correction)
	assert.Equal(t, model.Dictionary{"Tehran": ""}, res.Protection)
}

func TestProcessPollDownload(t *testing.T) {
	svc, _ := newService(t, fakeserver.Options{PollsPerFile: 1, Correction: model.Dictionary{"teh": "the"}})
	ctx := context.Background()
	dir := t.TempDir()
	a := writeSRT(t, dir, "a.srt", "1\n00:00:01,000 --> 00:00:02,000\nteh end\n")

	id, err := svc.Process(ctx, []string{a})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var task *model.Task
	for i := 0; i < 5; i++ {
		task, err = svc.Task(ctx, id)
		require.NoError(t, err)
		if task.Status.Terminal() {
			break
		}
	}
	require.Equal(t, model.TaskCompleted, task.Status)
	assert.Equal(t, id, task.ID)

	data, err := svc.Download(ctx, "a_corrected.srt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "the end")

	archive, err := svc.DownloadMultiple(ctx, []string{"a_corrected.srt"})
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
}

func TestTask_NotFound(t *testing.T) {
	svc, _ := newService(t, fakeserver.Options{})
	_, err := svc.Task(context.Background(), "missing")
	var te *errs.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 404, te.Status)
	assert.Equal(t, "Task not found", te.Message)
}
