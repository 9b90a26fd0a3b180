package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/arloliu/nodebus"
	"github.com/arloliu/nodebus/internal/logging"
	"github.com/arloliu/nodebus/internal/monitor"
)

func monitorCmd() *cobra.Command {
	var (
		url           string
		channels      []string
		timeout       time.Duration
		selfCheckOnly bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Self-check the bus and print control-plane traffic",
		Long: `Connects to the broker, publishes a self-check message on the first channel and
waits for it to come back, then prints every message on the channels until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(channels) == 0 {
				return fmt.Errorf("%w: at least one --channel is required", nodebus.ErrInvalidConfig)
			}

			out := cmd.OutOrStdout()
			log, err := logging.New(cmd.ErrOrStderr(), logging.FormatText, "warn")
			if err != nil {
				return err
			}

			nc, err := nats.Connect(url, nats.Name("nodebus-monitor"), nats.Timeout(timeout))
			if err != nil {
				return fmt.Errorf("connect to %s: %w", url, err)
			}
			defer nc.Close()

			m, err := monitor.New(nc, monitor.WithLogger(log))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			res, err := m.SelfCheck(checkCtx, channels[0])
			cancel()
			if err != nil {
				return fmt.Errorf("self-check on %q failed: %w", channels[0], err)
			}
			fmt.Fprintf(out, "connected to %s, rtt %v, self-check %s looped back in %v\n",
				nc.ConnectedUrl(), res.RTT, res.Token, res.Loopback)

			if selfCheckOnly {
				return nil
			}

			fmt.Fprintf(out, "watching %v, press Ctrl+C to stop\n", channels)

			return m.Watch(ctx, channels, func(ev monitor.Event) {
				fmt.Fprintln(out, monitor.Describe(ev))
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", nats.DefaultURL, "NATS broker URL")
	cmd.Flags().StringSliceVar(&channels, "channel", []string{nodebus.RegisterChannel}, "Channel to watch (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Connect and self-check timeout")
	cmd.Flags().BoolVar(&selfCheckOnly, "self-check-only", false, "Exit after the self-check")

	return cmd
}
