package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/samscraper/config"
	"github.com/s0up4200/samscraper/filter"
	"github.com/s0up4200/samscraper/sam"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	samClient sam.API
	filters   *filter.Manager
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "samscraper",
	Short: "Search sam.gov contract opportunities and fetch their attachments",
	Long: `samscraper is a CLI tool for the sam.gov procurement API. It searches
contract opportunities, looks up opportunity and exclusion details and
downloads opportunity attachments.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// initializeApp initializes the configuration, the sam.gov client and the filter presets
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging, os.Stderr)

	// Create sam.gov client
	samClient, err = sam.NewClient(logger,
		sam.WithBaseURL(cfg.SAM.BaseURL),
		sam.WithTimeout(cfg.SAM.Timeout),
		sam.WithQuery(cfg.Search.Query),
	)
	if err != nil {
		return fmt.Errorf("failed to create sam.gov client: %w", err)
	}

	filters, err = newFilterManager(cfg.Filter)
	if err != nil {
		return err
	}

	return nil
}

// newFilterManager compiles the configured presets
func newFilterManager(cfg config.FilterConfig) (*filter.Manager, error) {
	manager := filter.NewManager()

	presets := make(map[string]string, len(cfg.Presets))
	for name, preset := range cfg.Presets {
		presets[name] = preset.Expression
	}

	if err := manager.RegisterFilters(presets); err != nil {
		return nil, fmt.Errorf("invalid filter preset: %w", err)
	}

	return manager, nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(out),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
