package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mediasoup "github.com/sfukit/mediasoup-go"
	"github.com/sfukit/mediasoup-go/internal/admin"
	"github.com/sfukit/mediasoup-go/internal/config"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the workers and serve the admin API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, *cfg, mediasoup.NewLogger("sfuctl"))
		},
	}
}

func run(ctx context.Context, cfg config.Config, logger logr.Logger) error {
	manager := mediasoup.NewWorkerManager(workerOptions(cfg)...)
	defer manager.Close()

	shuttingDown := make(chan struct{})

	// A dead worker is replaced so the pool keeps its size.
	unsubscribe := manager.SubscribeWorkerDied(func(ev mediasoup.WorkerDiedEvent) {
		logger.Error(ev.Err, "worker died", "pid", ev.Worker.Pid())

		select {
		case <-shuttingDown:
			return
		default:
		}
		if _, err := manager.CreateWorker(); err != nil {
			logger.Error(err, "replacing dead worker failed")
		}
	})
	defer unsubscribe()

	for i := 0; i < cfg.NumWorkers; i++ {
		worker, err := manager.CreateWorker(mediasoup.WithAppData(mediasoup.H{"index": i}))
		if err != nil {
			return fmt.Errorf("create worker %d: %w", i, err)
		}
		logger.Info("worker started", "pid", worker.Pid())
	}

	if cfg.Config != "" {
		if _, err := os.Stat(cfg.Config); err == nil {
			watcher := config.NewWatcher(cfg.Config, config.LoadFile, logger.WithName("config"))
			watcher.OnReload(func(next config.Config) {
				applySettings(ctx, manager, next, logger)
			})
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("watch config: %w", err)
			}
			defer watcher.Stop()
		}
	}

	server := admin.NewServer(cfg.AdminAddr, admin.ManagerSource(manager), cfg.MetricsPath, promhttp.Handler(), logger.WithName("admin"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		close(shuttingDown)

		if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
			logger.V(1).Info("sd_notify failed", "err", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Error(err, "sd_notify ready failed")
	} else if sent {
		logger.V(1).Info("notified systemd")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}

// applySettings pushes the reloadable part of cfg to every live worker.
// Invalid files are reported and ignored.
func applySettings(ctx context.Context, manager *mediasoup.WorkerManager, cfg config.Config, logger logr.Logger) {
	if err := cfg.Validate(); err != nil {
		logger.Error(err, "ignoring invalid configuration")
		return
	}
	settings := updatableSettings(cfg)

	var g errgroup.Group
	for _, worker := range manager.Workers() {
		g.Go(func() error {
			if err := worker.UpdateSettings(ctx, settings); err != nil {
				return fmt.Errorf("worker %d: %w", worker.Pid(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error(err, "updating worker settings failed")
		return
	}
	logger.Info("worker settings updated", "logLevel", settings.LogLevel, "logTags", settings.LogTags)
}
