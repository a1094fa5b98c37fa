package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vistoria/fieldsync/internal/config"
	"github.com/vistoria/fieldsync/internal/connectivity"
	"github.com/vistoria/fieldsync/internal/db"
	"github.com/vistoria/fieldsync/internal/edge"
	"github.com/vistoria/fieldsync/internal/remote"
	"github.com/vistoria/fieldsync/internal/sync"
)

// NewRunCommand creates the run command: the long-lived agent that keeps
// the local store reconciled with the backend.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync agent",
		Long: `Run the sync agent: opens the local database, monitors backend
reachability, drains the operation queue on a schedule and whenever the
connection comes back, and serves cached reads through the edge worker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runAgent(rootOpts, cfg)
		},
	}
}

func runAgent(rootOpts *RootOptions, cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}

	store := db.NewStore(database)
	client := remote.NewClient(cfg.Remote.URL, cfg.Remote.APIKey, cfg.Remote.Timeout, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := connectivity.NewMonitor(ctx, client, cfg.Sync.ProbeInterval, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	engine := sync.NewEngine(store, client, monitor, sync.Config{
		Interval:    cfg.Sync.Interval,
		MaxAttempts: cfg.Sync.MaxAttempts,
	}, logger)

	worker := edge.NewWorker(edge.UpstreamFunc(func(ctx context.Context, req edge.Request) (edge.Response, error) {
		status, body, err := client.Fetch(ctx, req.Method, req.URL)
		if err != nil {
			return edge.Response{}, err
		}
		return edge.Response{Status: status, Body: body}, nil
	}), edge.Config{
		Retention:     cfg.Cache.Retention,
		SweepInterval: cfg.Cache.SweepInterval,
	}, logger)
	worker.Start(ctx)
	worker.SetOnline(monitor.Online(), monitor.TotalOfflineTime())

	// Forward connectivity transitions into the edge worker.
	events := monitor.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				worker.SetOnline(ev.State == connectivity.Online, monitor.TotalOfflineTime())
			}
		}
	}()

	go engine.Run(ctx)

	logger.Info("fieldsync agent started",
		zap.String("data_dir", cfg.DataDir),
		zap.String("remote", cfg.Remote.URL),
		zap.Duration("sync_interval", cfg.Sync.Interval))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()
	return nil
}
