package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/spf13/cobra"
)

func brokerCmd() *cobra.Command {
	var (
		host  string
		port  int
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "broker",
		Short: "Run a local NATS server for development",
		Long: `Runs an in-process NATS server so the agent and monitor can be exercised
without external infrastructure. Not intended for production.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := &server.Options{
				Host:   host,
				Port:   port,
				NoLog:  !debug,
				Debug:  debug,
				NoSigs: true, // signals are handled below
			}

			srv, err := server.NewServer(opts)
			if err != nil {
				return fmt.Errorf("create NATS server: %w", err)
			}
			if debug {
				srv.ConfigureLogger()
			}

			go srv.Start()

			if !srv.ReadyForConnections(10 * time.Second) {
				srv.Shutdown()
				return fmt.Errorf("NATS server not ready within timeout")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "NATS_URL=%s\n", srv.ClientURL())
			fmt.Fprintln(out, "NATS_READY=true")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			fmt.Fprintln(cmd.ErrOrStderr(), "Shutting down NATS server...")
			srv.Shutdown()
			srv.WaitForShutdown()

			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen address")
	cmd.Flags().IntVar(&port, "port", 4222, "Client port (-1 for a random port)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable server logging")

	return cmd
}
