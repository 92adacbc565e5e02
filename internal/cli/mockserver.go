package cli

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/srtctl/internal/fakeserver"
	"github.com/ppiankov/srtctl/internal/model"
)

var (
	mockAddr         string
	mockPIN          string
	mockPollsPerFile int
	mockCorrection   string
	mockProtection   string
	mockFailWith     string
)

// mockServerCmd represents the mock-server command
var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run an in-memory correction service for local testing",
	Long: `mock-server serves the correction service API under /api from memory.
Tasks advance one step per status poll, dictionaries live until the process
exits and corrections are plain whole-word replacements.

Example:
  srtctl mock-server --addr :5002 --correction words.txt
  srtctl --server http://localhost:5002/api submit episode1.srt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := fakeserver.Options{
			PIN:          mockPIN,
			PollsPerFile: mockPollsPerFile,
			FailWith:     mockFailWith,
		}
		if mockCorrection != "" {
			d, err := readDictionaryFile(model.KindCorrection, mockCorrection)
			if err != nil {
				return err
			}
			opts.Correction = d
		}
		if mockProtection != "" {
			d, err := readDictionaryFile(model.KindProtection, mockProtection)
			if err != nil {
				return err
			}
			opts.Protection = d
		}

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := fakeserver.New(opts)

		fmt.Fprintf(os.Stderr, "✓ Mock service listening on %s (API root /api)\n", mockAddr)
		return srv.ListenAndServe(cmd.Context(), mockAddr)
	},
}

func init() {
	rootCmd.AddCommand(mockServerCmd)

	mockServerCmd.Flags().StringVar(&mockAddr, "addr", ":5002", "listen address")
	mockServerCmd.Flags().StringVar(&mockPIN, "pin", fakeserver.DefaultPIN, "PIN accepted for dictionary writes")
	mockServerCmd.Flags().IntVar(&mockPollsPerFile, "polls-per-file", 2, "processing polls per file before a task completes")
	mockServerCmd.Flags().StringVar(&mockCorrection, "correction", "", "seed the correction dictionary from a text file")
	mockServerCmd.Flags().StringVar(&mockProtection, "protection", "", "seed the protection dictionary from a text file")
	mockServerCmd.Flags().StringVar(&mockFailWith, "fail-with", "", "make every task fail with this message")
}
