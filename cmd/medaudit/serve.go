// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medicode/coding-audit-mcp/internal/audit"
	"github.com/medicode/coding-audit-mcp/internal/coding"
	"github.com/medicode/coding-audit-mcp/internal/config"
	"github.com/medicode/coding-audit-mcp/internal/ids"
	"github.com/medicode/coding-audit-mcp/internal/session"
	"github.com/medicode/coding-audit-mcp/internal/tool"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		handlers, err := buildHandlers(cfg)
		if err != nil {
			return err
		}
		server := tool.NewServer(&mcp.Implementation{
			Name:    cfg.Server.Name,
			Version: cfg.Server.Version,
		}, handlers)

		zap.L().Info("serve: starting mcp server",
			zap.String("name", cfg.Server.Name),
			zap.String("version", cfg.Server.Version),
		)
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return eris.Wrap(err, "serve: run")
		}
		zap.L().Info("serve: stopped")
		return nil
	},
}

// buildHandlers wires one reviewing session from c.
func buildHandlers(c *config.Config) (*tool.Handlers, error) {
	contract, err := coding.NewContract()
	if err != nil {
		return nil, eris.Wrap(err, "serve: compile contract")
	}
	exporter, err := newExporter(c.Export)
	if err != nil {
		return nil, err
	}

	alloc := ids.NewTimeOrdered()
	s := session.New(
		session.WithNormalizer(coding.NewNormalizer(alloc)),
		session.WithContract(contract),
		session.WithLedger(audit.NewLedger(audit.WithAllocator(alloc))),
		session.WithActor(c.Review.Actor),
	)
	return tool.NewHandlers(s, exporter), nil
}

func newExporter(c config.ExportConfig) (*audit.Exporter, error) {
	loc, err := c.TimeLocation()
	if err != nil {
		return nil, err
	}
	return audit.NewExporter(
		audit.WithTimeLayout(c.TimeLayout),
		audit.WithLocation(loc),
		audit.WithFilenamePrefix(c.FilenamePrefix),
	), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
