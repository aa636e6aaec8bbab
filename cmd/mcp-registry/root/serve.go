package root

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lujin3/mcp-registry-server/api"
	"github.com/lujin3/mcp-registry-server/catalog"
	"github.com/lujin3/mcp-registry-server/internal/config"
)

const shutdownTimeout = 30 * time.Second

var (
	serveAddr     string
	serveCatalog  string
	serveMaxLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry HTTP API",
	Long: "Serve the registry over HTTP. SIGHUP reloads the catalog file; " +
		"SIGINT and SIGTERM shut the server down gracefully.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logrus.StandardLogger())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default "+config.DefaultAddr+", env "+config.EnvAddr+")")
	serveCmd.Flags().StringVar(&serveCatalog, "catalog", "", "catalog file, JSON or YAML (env "+config.EnvCatalog+")")
	serveCmd.Flags().IntVar(&serveMaxLimit, "max-limit", 0, "largest page size a client may request (env "+config.EnvMaxLimit+")")
}

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = serveAddr
	}
	if flags.Changed("catalog") {
		cfg.Catalog = serveCatalog
	}
	if flags.Changed("max-limit") {
		if serveMaxLimit <= 0 {
			return nil, errors.New("--max-limit must be positive")
		}
		cfg.MaxLimit = serveMaxLimit
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := cfg.LoadCatalog()
	if err != nil {
		return err
	}
	store := catalog.NewStore(c)
	logger.WithFields(logrus.Fields{
		"servers": c.Len(),
		"catalog": catalogName(cfg),
	}).Info("catalog loaded")

	handlers := api.NewHandlers(store, logger, cfg.APIOptions(Version))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("starting registry server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return shutdown(srv, logger)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reload(cfg, store, logger)
				continue
			}
			return shutdown(srv, logger)
		}
	}
}

func reload(cfg *config.Config, store *catalog.Store, logger logrus.FieldLogger) {
	next, err := cfg.Reload(store)
	if err != nil {
		logger.WithError(err).Error("catalog reload failed; keeping previous catalog")
		return
	}
	logger.WithField("servers", next.Len()).Info("catalog reloaded")
}

func shutdown(srv *http.Server, logger logrus.FieldLogger) error {
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown error")
		return err
	}
	logger.Info("server stopped")
	return nil
}

func catalogName(cfg *config.Config) string {
	if cfg.Catalog == "" {
		return "built-in"
	}
	return cfg.Catalog
}
