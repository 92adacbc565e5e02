package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/model"
)

var (
	dlDir      string
	dlZip      string
	fromReport string
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <name>...",
	Short: "Download corrected files from the service",
	Long: `Download fetches corrected files by name, either one by one in parallel
or as a single zip archive. Names can also be taken from a JSON report
written by 'srtctl submit --json'.

Example:
  srtctl download episode1_corrected.srt --dir ./fixed
  srtctl download --from-report report.json --zip fixed.zip`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&dlDir, "dir", "", "output directory (default: output.dir)")
	downloadCmd.Flags().StringVar(&dlZip, "zip", "", "download as one zip archive to this path")
	downloadCmd.Flags().StringVar(&fromReport, "from-report", "", "take file names from a submit JSON report")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names := append([]string(nil), args...)
	if fromReport != "" {
		data, err := os.ReadFile(fromReport)
		if err != nil {
			return fmt.Errorf("read report: %w", err)
		}
		var res model.BatchResult
		if err := json.Unmarshal(data, &res); err != nil {
			return fmt.Errorf("parse report %s: %w", fromReport, err)
		}
		names = append(names, res.DownloadNames()...)
	}
	if len(names) == 0 {
		return &errs.ValidationError{Field: "names", Reason: "no file names given"}
	}

	svc := newServices(cfg)
	if dlZip != "" {
		return downloadZip(cmd.Context(), svc, names, dlZip)
	}
	dir := dlDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	return downloadFiles(cmd.Context(), svc, names, dir)
}
