package root

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lujin3/mcp-registry-server/catalog"
	"github.com/lujin3/mcp-registry-server/internal/config"
	"github.com/lujin3/mcp-registry-server/mcpserver"
)

var mcpCatalog string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the catalog as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("catalog") {
			cfg.Catalog = mcpCatalog
		}

		c, err := cfg.LoadCatalog()
		if err != nil {
			return err
		}

		// stdout carries the protocol.
		logger := logrus.StandardLogger()
		logger.SetOutput(os.Stderr)
		logger.WithField("servers", c.Len()).Info("catalog loaded")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return mcpserver.NewServer(catalog.NewStore(c), logger, cfg.MCPOptions(Version)).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpCatalog, "catalog", "", "catalog file, JSON or YAML (env "+config.EnvCatalog+")")
}
