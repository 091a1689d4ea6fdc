/*
main.go - Application entry point

PURPOSE:
  The quest-engine command. Serves the household API by default and offers
  a one-shot compaction for cron jobs and maintenance.

COMMANDS:
  quest-engine [serve]     Start the HTTP server (default)
  quest-engine compact     Compact old ledgers once and exit

STARTUP SEQUENCE (serve):
  1. Load configuration (TOML file, then flag overrides)
  2. Initialize logging
  3. Open the SQLite store
  4. Create service, handler and router
  5. Start the compaction scheduler
  6. Start server with graceful shutdown

FLAGS:
  --config   TOML configuration file (optional)
  --port     HTTP port, overrides [server].port
  --db       SQLite path, overrides [database].path
             Use ":memory:" for an in-memory database
  --log-level debug | info | warn | error

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the compaction scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  quest-engine --db ./data/quest.db
  quest-engine --config /etc/quest-engine.toml --port 3000
  quest-engine compact --retention 30

SEE ALSO:
  - config/config.go: Configuration file
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/quest-engine/api"
	"github.com/warp/quest-engine/config"
	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/household"
	"github.com/warp/quest-engine/logging"
	"github.com/warp/quest-engine/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().Int("port", 0, "HTTP server port (overrides config)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	compactCmd.Flags().Int("retention", -1, "Days of detail to keep (default from config)")
	compactCmd.Flags().String("as-of", "", "Treat this date (YYYY-MM-DD) as today")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(compactCmd)
}

var rootCmd = &cobra.Command{
	Use:   "quest-engine",
	Short: "Household quest and screen-time engine",
	Long: `quest-engine tracks children's daily quests, bonus missions and penalties
and turns them into screen time and XP. Without a subcommand it serves the
HTTP API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Compact ledgers older than the retention window and exit",
	RunE:  runCompact,
}

// loadConfig reads --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("db") {
		cfg.Database.Path, _ = flags.GetString("db")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setup loads configuration, starts logging and opens the store.
func setup(cmd *cobra.Command) (config.Config, *sqlite.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := logging.Init(cfg.Logging()); err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, store, nil
}

// =============================================================================
// SERVE
// =============================================================================

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, store, err := setup(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := household.NewService(store)
	handler := api.NewHandler(svc, cfg.Compaction.RetentionDays)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	scheduler := api.NewCompactionScheduler(svc, cfg.Compaction.RetentionDays)
	scheduler.Enabled = cfg.Compaction.Enabled
	scheduler.CheckInterval, _ = cfg.CompactionInterval()
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     stdlog.New(logging.StdWriter(), "", 0),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logging.Info("server starting", "addr", "http://"+cfg.Addr(), "db", cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logging.Info("server stopped")
	return nil
}

// =============================================================================
// COMPACT
// =============================================================================

func runCompact(cmd *cobra.Command, _ []string) error {
	cfg, store, err := setup(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	retention := cfg.Compaction.RetentionDays
	if cmd.Flags().Changed("retention") {
		retention, _ = cmd.Flags().GetInt("retention")
		if retention < 0 {
			return fmt.Errorf("--retention must be >= 0")
		}
	}
	asOf, _ := cmd.Flags().GetString("as-of")
	if asOf == "" {
		asOf = generic.TodayString()
	}

	n, err := household.NewService(store).CompactAll(cmd.Context(), retention, asOf)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "compacted %d ledgers older than %d days as of %s\n", n, retention, asOf)
	return nil
}
