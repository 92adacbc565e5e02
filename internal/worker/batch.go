package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/srtctl/internal/util"
)

// Downloader fetches one corrected file by name.
type Downloader interface {
	Download(ctx context.Context, name string) ([]byte, error)
}

// DownloadJob fetches one file and writes it into Dir.
type DownloadJob struct {
	Index      int
	Name       string
	Dir        string
	Downloader Downloader
}

// Execute downloads and saves the file.
func (j *DownloadJob) Execute(ctx context.Context) Result {
	res := &DownloadResult{Index: j.Index, Name: j.Name}

	local := util.SafeFilename(j.Name)
	if local == "" {
		res.Error = fmt.Errorf("unusable file name %q", j.Name)
		return res
	}

	data, err := j.Downloader.Download(ctx, j.Name)
	if err != nil {
		res.Error = fmt.Errorf("download %s: %w", j.Name, err)
		return res
	}

	res.Path = filepath.Join(j.Dir, local)
	if err := os.WriteFile(res.Path, data, 0o644); err != nil {
		res.Error = fmt.Errorf("write %s: %w", res.Path, err)
		return res
	}
	res.Bytes = len(data)
	return res
}

// DownloadResult is the outcome of a DownloadJob.
type DownloadResult struct {
	Index int
	Name  string
	Path  string
	Bytes int
	Error error
}

// GetError returns the error from the download
func (r *DownloadResult) GetError() error {
	return r.Error
}

// BatchDownloader downloads many files concurrently.
type BatchDownloader struct {
	downloader  Downloader
	concurrency int
}

// NewBatchDownloader creates a batch downloader.
func NewBatchDownloader(downloader Downloader, concurrency int) *BatchDownloader {
	return &BatchDownloader{
		downloader:  downloader,
		concurrency: concurrency,
	}
}

// DownloadAll saves names into dir and returns one result per name in input
// order. Individual failures are reported per result.
func (b *BatchDownloader) DownloadAll(ctx context.Context, names []string, dir string) ([]*DownloadResult, error) {
	if len(names) == 0 {
		return []*DownloadResult{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	queued := true
	for i, name := range names {
		if !pool.Submit(&DownloadJob{Index: i, Name: name, Dir: dir, Downloader: b.downloader}) {
			queued = false
			break
		}
	}

	// a canceled ctx abandons the queue; finished files are still reported
	var results []Result
	if queued {
		results = pool.Wait()
	} else {
		results = pool.Shutdown()
	}

	out := make([]*DownloadResult, 0, len(names))
	for _, r := range results {
		out = append(out, r.(*DownloadResult))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// ReadListFile reads file paths from a list file (one per line). Blank lines
// and # comments are skipped, duplicates dropped, relative paths resolved
// against the list file's directory.
func ReadListFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
