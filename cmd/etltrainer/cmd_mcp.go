package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/felixgeelhaar/etltrainer/internal/mcp"
)

func newMCPCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for editor agents (stdio by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}

			srv := mcpserver.NewServer(mcpserver.Config{
				Service:     a.Service,
				Sessions:    a.Sessions,
				DefaultUser: c.userID(),
				DefaultMode: a.DefaultMode(),
				Version:     Version,
			})
			return serve(ctx, srv, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve over HTTP on this address instead of stdio")
	return cmd
}

func serve(ctx context.Context, srv *mcpserver.Server, addr string) error {
	if addr != "" {
		return srv.ServeHTTP(ctx, addr)
	}
	return srv.ServeStdio(ctx)
}
