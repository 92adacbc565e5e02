// Test program that drives the whole client against the in-memory service:
// dictionary edits, a multi-file batch, a wrong PIN and a failing task.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/srtctl/internal/api"
	"github.com/ppiankov/srtctl/internal/dictionary"
	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/fakeserver"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/render"
	"github.com/ppiankov/srtctl/internal/task"
	"github.com/ppiankov/srtctl/internal/transport"
	"github.com/ppiankov/srtctl/internal/worker"
)

const subtitle = `1
00:00:01,000 --> 00:00:03,000
teh quick brown fox, uh, jumps

2
00:00:04,000 --> 00:00:06,000
over teh lazy Teh dog
`

func main() {
	fmt.Println("=== srtctl round trip ===")
	fmt.Println()

	gin.SetMode(gin.ReleaseMode)
	srv := fakeserver.New(fakeserver.Options{PollsPerFile: 1})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := model.DefaultConfig()
	svc := api.New(transport.NewClient(cfg.HTTP, ts.URL+"/api", worker.NewLimiter(0, 0)))
	store := dictionary.NewStore(svc, dictionary.Options{TTL: time.Minute})

	// dictionaries
	_, err := store.SaveBulk(ctx,
		model.Dictionary{"teh": "the", "uh": ""},
		model.Dictionary{"Teh": ""},
		fakeserver.DefaultPIN)
	check("save dictionaries", err)
	corr, prot := store.Counts()
	fmt.Printf("  ✓ Saved dictionaries (%d correction, %d protection)\n", corr, prot)

	_, err = store.MutateTerm(ctx, model.TermMutation{
		PIN: "0000", Kind: model.KindCorrection, Term: "fox", Value: "cat", Action: model.ActionAdd,
	})
	if errors.Is(err, errs.ErrUnauthorized) {
		fmt.Printf("  ✓ Wrong PIN rejected: %s\n", errs.Message(err))
	} else {
		fail("wrong PIN", fmt.Errorf("expected unauthorized, got %v", err))
	}

	res, err := store.Search(ctx, "TE", model.ScopeAll)
	check("search", err)
	fmt.Printf("  ✓ Search \"TE\": %d correction, %d protection\n", len(res.Correction), len(res.Protection))

	// batch
	dir, err := os.MkdirTemp("", "srtctl-roundtrip-")
	check("temp dir", err)
	defer os.RemoveAll(dir)

	var files []string
	for _, name := range []string{"one.srt", "two.srt"} {
		p := filepath.Join(dir, name)
		check("write sample", os.WriteFile(p, []byte(subtitle), 0o644))
		files = append(files, p)
	}

	opts := task.DefaultOptions()
	opts.PollInterval = 10 * time.Millisecond
	opts.Counter = store
	opts.Observer = func(u task.Update) {
		if !u.Synthetic {
			fmt.Printf("    %-10s %3d%% %s\n", u.State, u.Progress, u.Status)
		}
	}
	batch, err := task.New(svc, opts).Run(ctx, files)
	check("run batch", err)
	render.NewRenderer(os.Stdout, false).RenderSummary(batch)

	out := filepath.Join(dir, "out")
	downloads, err := worker.NewBatchDownloader(svc, 2).DownloadAll(ctx, batch.DownloadNames(), out)
	check("download", err)
	for _, d := range downloads {
		check("download "+d.Name, d.Error)
		data, err := os.ReadFile(d.Path)
		check("read "+d.Path, err)
		fmt.Printf("  ✓ %s: %q\n", d.Name, firstCue(string(data)))
	}

	// failing task
	failing := fakeserver.New(fakeserver.Options{PollsPerFile: 1, FailWith: "Out of memory"})
	fts := httptest.NewServer(failing.Handler())
	defer fts.Close()
	fsvc := api.New(transport.NewClient(cfg.HTTP, fts.URL+"/api", nil))
	_, err = task.New(fsvc, opts).Run(ctx, files[:1])
	var tf *errs.TaskFailure
	if errors.As(err, &tf) {
		fmt.Printf("\n  ✓ Failed task surfaced: %s\n", errs.Message(err))
	} else {
		fail("failing task", fmt.Errorf("expected task failure, got %v", err))
	}

	fmt.Println("\n=== Round trip complete ===")
}

// firstCue returns the text of the first subtitle cue.
func firstCue(srt string) string {
	lines := strings.Split(strings.ReplaceAll(srt, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if strings.Contains(line, "-->") && i+1 < len(lines) {
			return lines[i+1]
		}
	}
	return ""
}

func check(step string, err error) {
	if err != nil {
		fail(step, err)
	}
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "  ✗ %s: %s\n", step, errs.Message(err))
	os.Exit(1)
}
