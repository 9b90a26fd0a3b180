package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/nodebus"
	"github.com/arloliu/nodebus/internal/logging"
	"github.com/arloliu/nodebus/internal/metrics"
)

type agentFlags struct {
	configPath   string
	broker       string
	nodeID       string
	grpcEndpoint string
	metricsAddr  string
	logFormat    string
	logLevel     string
	printConfig  bool
}

func agentCmd() *cobra.Command {
	var f agentFlags

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Register this node with the control plane",
		Long: `Connects to the broker, publishes a register message every heartbeat interval
and a deregister message on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadAgentConfig(cmd, &f)
			if err != nil {
				return err
			}

			if f.printConfig {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()

				return enc.Encode(cfg)
			}

			return runAgent(cmd.Context(), cmd, cfg, &f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&f.broker, "broker", "", "NATS broker URL, e.g. nats://127.0.0.1:4222")
	cmd.Flags().StringVar(&f.nodeID, "node", "", "Node ID (default: host name)")
	cmd.Flags().StringVar(&f.grpcEndpoint, "grpc-endpoint", "", "gRPC endpoint announced to the control plane")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().StringVar(&f.logFormat, "log-format", logging.FormatText, "Log format (text, json)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.printConfig, "print-config", false, "Print the effective configuration and exit")

	return cmd
}

// loadAgentConfig merges file, environment and flags, flags winning.
func loadAgentConfig(cmd *cobra.Command, f *agentFlags) (*nodebus.Config, error) {
	cfg, err := nodebus.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("broker") {
		cfg.BrokerURL = f.broker
	}
	if flags.Changed("node") {
		cfg.NodeID = f.nodeID
		cfg.ClientName = ""
	}
	if flags.Changed("grpc-endpoint") {
		cfg.GRPCEndpoint = f.grpcEndpoint
	}

	nodebus.SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runAgent(ctx context.Context, cmd *cobra.Command, cfg *nodebus.Config, f *agentFlags) error {
	base, err := logging.New(cmd.ErrOrStderr(), f.logFormat, f.logLevel)
	if err != nil {
		return err
	}
	log := base.With("node_id", cfg.NodeID)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	agent, err := nodebus.NewAgent(cfg,
		nodebus.WithLogger(log),
		nodebus.WithMetrics(metrics.NewPrometheus(reg, "nodebus")),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := agent.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if f.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{
			Addr:              f.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Info("serving metrics", "addr", f.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return agent.Stop(shutdownCtx)
	})

	return g.Wait()
}
