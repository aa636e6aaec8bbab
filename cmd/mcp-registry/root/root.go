package root

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X .../root.Version=...".
var Version = "dev"

// rootCmd is the base command for mcp-registry
var rootCmd = &cobra.Command{
	Use:   "mcp-registry",
	Short: "Serve a read-only MCP server registry",
	Long: "mcp-registry loads a catalog of MCP server metadata and serves it over a " +
		"cursor-paginated HTTP API, or as MCP tools over stdio.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	_ = godotenv.Load()
	logFile := setupLogging()

	err := rootCmd.Execute()
	if logFile != nil {
		_ = logFile.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging configures the standard logrus logger from LOG_LEVEL, DEBUG
// and LOG_FILE. It returns the opened log file, if any.
func setupLogging() *os.File {
	logrus.SetLevel(parseLevel(os.Getenv("LOG_LEVEL"), os.Getenv("DEBUG")))
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lf := strings.TrimSpace(os.Getenv("LOG_FILE"))
	if lf == "" {
		return nil
	}
	if strings.HasPrefix(lf, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			lf = filepath.Join(home, strings.TrimPrefix(lf, "~"))
		}
	}
	if err := os.MkdirAll(filepath.Dir(lf), 0o755); err != nil {
		logrus.WithError(err).Warn("failed to create directory for LOG_FILE; using stderr only")
		return nil
	}
	f, err := os.OpenFile(lf, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.WithError(err).Warn("failed to open LOG_FILE; using stderr only")
		return nil
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	logrus.WithField("file", lf).Info("logging to file enabled")
	return f
}

func parseLevel(level, debug string) logrus.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" && (debug == "1" || strings.EqualFold(debug, "true")) {
		level = "debug"
	}
	switch level {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
