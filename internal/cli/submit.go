package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/render"
	"github.com/ppiankov/srtctl/internal/task"
	"github.com/ppiankov/srtctl/internal/worker"
)

var (
	listFile      string
	outJSON       string
	outMD         string
	downloadDir   string
	zipPath       string
	submitTimeout time.Duration
	noProgress    bool
	noDownload    bool
	noFooter      bool
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit <file.srt>...",
	Short: "Correct subtitle files and download the results",
	Long: `Submit uploads one or more .srt files as a single batch, follows the
server task until it completes and then:
- prints a per-file summary of the replacements made
- downloads the corrected files (or one zip archive)
- optionally writes JSON and Markdown reports

Interrupting (Ctrl-C) stops watching the task; the server keeps processing.

Example:
  srtctl submit episode1.srt episode2.srt
  srtctl submit --list season1.txt --download-dir ./fixed
  srtctl submit episode1.srt --zip fixed.zip --json report.json --md report.md`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&listFile, "list", "", "file with one subtitle path per line (# comments and blank lines skipped, repeated paths submitted once)")
	submitCmd.Flags().StringVar(&outJSON, "json", "", "output JSON report path (optional)")
	submitCmd.Flags().StringVar(&outMD, "md", "", "output Markdown report path (optional)")
	submitCmd.Flags().StringVar(&downloadDir, "download-dir", "", "where corrected files go (default: output.dir)")
	submitCmd.Flags().StringVar(&zipPath, "zip", "", "download all corrected files as one zip archive")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 0, "overall timeout (default: none, the poll budget applies)")
	submitCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	submitCmd.Flags().BoolVar(&noDownload, "no-download", false, "do not download corrected files")
	submitCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files := append([]string(nil), args...)
	if listFile != "" {
		listed, err := worker.ReadListFile(listFile)
		if err != nil {
			return err
		}
		files = append(files, listed...)
	}
	if len(files) == 0 {
		return &errs.ValidationError{Field: "files", Reason: "no subtitle files given"}
	}

	ctx := cmd.Context()
	if submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, submitTimeout)
		defer cancel()
	}

	svc := newServices(cfg)

	// counts feed the batch statistics when the server leaves them out
	if _, _, err := svc.store.LoadAll(ctx); err != nil {
		log.Warn().Err(err).Msg("could not load dictionaries")
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  srtctl submit\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Server:  %s\n", cfg.Server.BaseURL)
	fmt.Fprintf(os.Stderr, "  Files:   %d\n", len(files))
	fmt.Fprintf(os.Stderr, "\n")

	var observer task.Observer
	var bar *progressPrinter
	if !noProgress {
		bar = newProgressPrinter(os.Stderr)
		observer = bar.Observe
	}

	res, err := svc.orchestrator(observer).Run(ctx, files)
	if bar != nil {
		bar.Done()
	}
	if err != nil {
		return err
	}

	r := render.NewRenderer(os.Stdout, !noFooter)
	r.RenderSummary(res)

	if outJSON != "" {
		if err := r.RenderJSON(res, outJSON); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	}
	if outMD != "" {
		if err := r.RenderMarkdown(res, outMD); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
	}

	if noDownload {
		return nil
	}
	names := res.DownloadNames()
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "Nothing to download.\n")
		return nil
	}
	if zipPath != "" {
		return downloadZip(ctx, svc, names, zipPath)
	}
	dir := downloadDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	return downloadFiles(ctx, svc, names, dir)
}

// downloadFiles saves names into dir and fails if any file could not be saved.
func downloadFiles(ctx context.Context, svc *services, names []string, dir string) error {
	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Downloading %d file(s) to %s...\n", len(names), dir)
	}

	results, err := svc.downloader().DownloadAll(ctx, names, dir)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", r.Name, errs.Message(r.Error))
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ Saved %s (%d bytes)\n", r.Path, r.Bytes)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(results))
	}
	return nil
}

// downloadZip fetches names as one archive and writes it to path.
func downloadZip(ctx context.Context, svc *services, names []string, path string) error {
	data, err := svc.api.DownloadMultiple(ctx, names)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Saved %s (%d files, %d bytes)\n", path, len(names), len(data))
	return nil
}
