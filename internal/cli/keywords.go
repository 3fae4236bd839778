package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thruflo/reviewgate/internal/gate"
)

var keywordsFormat string

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the exit keyword tables",
	Long: `Prints the keywords that end a review session.

Latin keywords match case-insensitively; CJK keywords must match the input
exactly. Use --format to get machine-readable output for orchestrator
tooling.

Example:
  reviewgate keywords
  reviewgate keywords --format json`,
	Args: cobra.NoArgs,
	RunE: runKeywords,
}

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsFormat, "format", "f", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(keywordsCmd)
}

// keywordTables is the encoding shape for json and yaml output.
type keywordTables struct {
	Latin []string `json:"latin" yaml:"latin"`
	CJK   []string `json:"cjk" yaml:"cjk"`
}

func runKeywords(cmd *cobra.Command, args []string) error {
	tables := keywordTables{
		Latin: gate.LatinKeywords(),
		CJK:   gate.CJKKeywords(),
	}
	out := cmd.OutOrStdout()

	switch keywordsFormat {
	case "text":
		fmt.Fprintln(out, "Latin (case-insensitive):")
		for _, k := range tables.Latin {
			fmt.Fprintf(out, "  %s\n", k)
		}
		fmt.Fprintln(out, "CJK (exact match):")
		for _, k := range tables.CJK {
			fmt.Fprintf(out, "  %s\n", k)
		}
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(tables)
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", keywordsFormat)
	}
}
