package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the correction service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		start := time.Now()
		h, err := newServices(cfg).api.Health(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("✓ %s is %s (version %s, %v)\n", cfg.Server.BaseURL, h.Status, h.Version, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
