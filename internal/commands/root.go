package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-ingest/internal/buildinfo"
	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	verbose bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "statements",
		Short:   "Bank and credit card statement ingestion",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newAnalyzeCommand(opts),
		newParseCommand(opts),
		newImportCommand(opts),
		newCategorizeCommand(opts),
		newWorkerCommand(opts),
		newMigrateCommand(opts),
	)

	return rootCmd
}

// logger writes JSON logs to the command's stderr.
func (o *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// readInput reads a statement file; "-" reads stdin.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// parseSeparator accepts a single character or the names "tab", "comma",
// "semicolon" and "pipe". Empty means auto-detect.
func parseSeparator(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: separator must be a single character, got %q", common.ErrBadRequest, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// parseDefaultCategory returns nil for an empty flag.
func parseDefaultCategory(s string) (*common.Category, error) {
	if s == "" {
		return nil, nil
	}
	c, err := common.ParseCategory(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// loadConfig loads env configuration for commands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// userError turns unanalyzable-file errors into one readable message.
func userError(err error) error {
	var ue *importservice.UnanalyzableError
	if errors.As(err, &ue) {
		return errors.New(ue.Error())
	}
	return err
}
