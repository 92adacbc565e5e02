package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/srtctl/internal/dictionary"
	"github.com/ppiankov/srtctl/internal/model"
)

var (
	dictJSON       bool
	saveCorrection string
	saveProtection string
	searchType     string
	searchLocal    bool
)

// dictCmd represents the dict command
var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Manage the correction and protection dictionaries",
	Long: `Manage the dictionaries the service applies.

The correction dictionary maps a wrong term to its replacement; an empty
replacement removes the term. The protection dictionary lists terms that are
never corrected.

Text format (used by get and save):
  correction:  one "wrong -> correct" pair per line ("wrong ->" removes)
  protection:  one term per line

Writes require the service PIN (--pin or SRTCTL_SERVER_PIN).`,
}

var dictGetCmd = &cobra.Command{
	Use:   "get <correction|protection>",
	Short: "Print a dictionary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		svc, err := dictServices()
		if err != nil {
			return err
		}

		d, err := svc.store.Load(cmd.Context(), kind)
		if err != nil {
			return err
		}
		if dictJSON {
			return printJSON(d)
		}
		fmt.Print(dictionary.Format(kind, d))
		return nil
	},
}

var dictSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Replace both dictionaries from text files",
	Long: `Save replaces the correction and protection dictionaries in one step.
Both requests are sent concurrently; if one of them fails the other stays
applied and the command reports which side was saved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		correction, err := readDictionaryFile(model.KindCorrection, saveCorrection)
		if err != nil {
			return err
		}
		protection, err := readDictionaryFile(model.KindProtection, saveProtection)
		if err != nil {
			return err
		}
		svc, err := dictServices()
		if err != nil {
			return err
		}

		out, err := svc.store.SaveBulk(cmd.Context(), correction, protection, svc.cfg.Server.PIN)
		if out != nil {
			fmt.Printf("✓ Saved %d correction and %d protection terms\n", out.Correction.Count, out.Protection.Count)
		}
		return err
	},
}

func mutateCmd(action model.Action, use, short string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			svc, err := dictServices()
			if err != nil {
				return err
			}

			m := model.TermMutation{PIN: svc.cfg.Server.PIN, Kind: kind, Term: args[1], Action: action}
			if len(args) > 2 {
				m.Value = args[2]
			}
			resp, err := svc.store.MutateTerm(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Printf("✓ %s\n", resp.Message)
			return nil
		},
	}
}

var dictSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find terms containing a query (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := model.ParseScope(searchType)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if searchLocal {
			cfg.Search.Mode = model.SearchLocal
		}

		res, err := newServices(cfg).store.Search(cmd.Context(), args[0], scope)
		if err != nil {
			return err
		}
		if dictJSON {
			return printJSON(res)
		}

		if scope.Includes(model.KindCorrection) {
			fmt.Printf("Correction (%d):\n", len(res.Correction))
			for _, k := range res.Correction.Keys() {
				fmt.Printf("  %s -> %s\n", k, res.Correction[k])
			}
		}
		if scope.Includes(model.KindProtection) {
			fmt.Printf("Protection (%d):\n", len(res.Protection))
			for _, k := range res.Protection.Keys() {
				fmt.Printf("  %s\n", k)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dictCmd)

	dictGetCmd.Flags().BoolVar(&dictJSON, "json", false, "print JSON instead of text")
	dictSearchCmd.Flags().BoolVar(&dictJSON, "json", false, "print JSON instead of text")
	dictSearchCmd.Flags().StringVar(&searchType, "type", "all", "scope: all, correction or protection")
	dictSearchCmd.Flags().BoolVar(&searchLocal, "local", false, "search the loaded dictionaries instead of asking the server")

	dictSaveCmd.Flags().StringVar(&saveCorrection, "correction", "", "correction dictionary text file")
	dictSaveCmd.Flags().StringVar(&saveProtection, "protection", "", "protection dictionary text file")
	_ = dictSaveCmd.MarkFlagRequired("correction")
	_ = dictSaveCmd.MarkFlagRequired("protection")

	dictCmd.AddCommand(
		dictGetCmd,
		dictSaveCmd,
		mutateCmd(model.ActionAdd, "add <type> <term> [value]", "Add a term", cobra.RangeArgs(2, 3)),
		mutateCmd(model.ActionUpdate, "update <type> <term> [value]", "Change a term's replacement (adds it if missing)", cobra.RangeArgs(2, 3)),
		mutateCmd(model.ActionDelete, "delete <type> <term>", "Remove a term", cobra.ExactArgs(2)),
		dictSearchCmd,
	)
}

func dictServices() (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newServices(cfg), nil
}

func readDictionaryFile(kind model.Kind, path string) (model.Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s dictionary: %w", kind, err)
	}
	return dictionary.Parse(kind, string(data)), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
