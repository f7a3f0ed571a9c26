package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"boardroom/internal/catalog"
	"boardroom/internal/config"
	"boardroom/internal/engine"
	"boardroom/internal/gate"
	"boardroom/internal/logging"
	"boardroom/internal/store"
	"boardroom/internal/tokensource"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "boardroom",
	Short: "boardroom - guided audit and board-meeting session engine",
	Long: `boardroom runs guided, multi-turn interactive sessions backed by an
LLM token source: quick audits that gate each answer for specificity, and
simulated board meetings with a rotating cast of director personas.

Sessions are durable; every turn is reconstructed from the record store, so
a restart never loses a conversation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logOpts := logging.Options{
			DebugMode:  cfg.Logging.DebugMode || verbose,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		}
		if err := logging.Initialize(cfg.Logging.Dir, logOpts); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the boardroom version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("boardroom %s\n", config.DefaultConfig().Version)
	},
}

// openStore opens the record store alone, for read-only inspection commands
// that must work without any LLM provider configured.
func openStore() (*store.LocalStore, error) {
	st, err := store.NewLocalStore(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}
	return st, nil
}

// app is the wired composition: store, catalog, token source, gate, engine.
type app struct {
	engine   *engine.Engine
	provider *catalog.Provider
	close    func()
}

// buildApp wires everything from the loaded configuration.
func buildApp() (*app, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}

	provider, err := catalog.NewProvider(cfg.CatalogDir)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	source, err := tokensource.NewClient(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	g := gate.New(source, cfg.Engine.MaxGateAttempts)
	return &app{
		engine:   engine.New(st, source, g, provider, cfg.Engine),
		provider: provider,
		close:    func() { _ = st.Close() },
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "boardroom.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
