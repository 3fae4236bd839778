package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thruflo/reviewgate/internal/gate"
	"github.com/thruflo/reviewgate/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Process exit codes.
const (
	// ExitOK covers clean endings: exit keyword or closed input.
	ExitOK = 0
	// ExitError covers interrupted sessions and read/write failures.
	ExitError = 1
)

var verbose bool

// exitCodeError carries a non-zero process exit code out of a RunE without
// any shared command state.
type exitCodeError struct {
	code    int
	outcome gate.Outcome
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("session ended: %s", e.outcome)
}

var rootCmd = &cobra.Command{
	Use:   "reviewgate",
	Short: "Interactive review gate between an agent step and its reviewer",
	Long: `Reviewgate holds an agent step open for review. It reads lines from
stdin and echoes each non-empty line as a sub-prompt for the orchestrating
agent to pick up, until the reviewer submits an exit keyword (English or
Chinese), closes stdin, or interrupts the process.

Sub-prompts are emitted as:

  USER_REVIEW_SUB_PROMPT: <your text>

Run 'reviewgate keywords' to list the exit keywords.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGate,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("reviewgate version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging on stderr")
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var coded exitCodeError
		if errors.As(err, &coded) {
			return coded.code
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func runGate(cmd *cobra.Command, args []string) error {
	logger := logging.New()
	if verbose {
		logger.SetLevel(logging.LevelDebug)
	}

	gate.CheckStreams(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	g := gate.New(cmd.InOrStdin(), cmd.OutOrStdout(), gate.WithLogger(logger))
	result := g.Run(ctx)

	logger.Debug("review session ended",
		"outcome", result.Outcome.String(),
		"keyword", result.Keyword,
		"prompts", result.Prompts)

	if result.Err != nil {
		logger.Error("review loop failed", "err", result.Err)
	}

	switch result.Outcome {
	case gate.OutcomeClosed, gate.OutcomeUserExit:
		return nil
	default:
		return exitCodeError{code: ExitError, outcome: result.Outcome}
	}
}
