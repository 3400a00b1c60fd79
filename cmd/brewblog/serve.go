package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/renderinc/brewblog/internal/web"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			server := web.NewServer(a.store, a.logger)
			read, write, shutdown := a.cfg.Server.Timeouts()
			return server.Run(ctx, a.cfg.Server.Addr(), read, write, shutdown)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Host to bind to")
	cmd.Flags().IntVar(&port, "port", 6893, "Port to listen on")
	return cmd
}
