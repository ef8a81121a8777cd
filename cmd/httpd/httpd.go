// Package httpd implements the serve command: it wires the HTTP API, the
// monitoring-task scheduler, and runs until interrupted.
package httpd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/rivalscan/rivalscan/cmd/common"
	"github.com/rivalscan/rivalscan/internal/api"
	"github.com/rivalscan/rivalscan/internal/tasks"
)

const errorChannelBufferSize = 1

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Run the HTTP API server",
		Long: `Start the competitor intelligence HTTP API and the monitoring-task
scheduler, shutting both down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.New(cmd.Flag("config").Value.String())
			if err != nil {
				return err
			}
			return run(cmd.Context(), deps)
		},
	}
}

// run starts the scheduler and server, then blocks until a signal or a
// server error.
func run(ctx context.Context, deps *cmdcommon.Deps) error {
	log := deps.Logger

	taskService := tasks.NewService(deps.TaskStore, log)

	// Each scheduled task fires a price re-check and records observed
	// prices into the history store.
	runner := tasks.RunnerFunc(deps.Monitor.RunTask)
	scheduler := tasks.NewScheduler(deps.TaskStore, runner, log)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	router := api.NewRouter(api.Handlers{
		Discovery: api.NewDiscoveryHandler(deps.Discovery, deps.Engine, log),
		Monitor:   api.NewMonitorHandler(deps.Monitor, log),
		Tasks:     api.NewTasksHandler(taskService, scheduler, log),
	}, log)

	server := api.NewServer(deps.Config.Server.Address, router, log)

	errCh := make(chan error, errorChannelBufferSize)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		scheduler.Stop()
		return err
	case <-ctx.Done():
		log.Info("Context cancelled, shutting down")
	}

	scheduler.Stop()
	if err := server.Shutdown(context.Background()); err != nil {
		return err
	}

	// Drain the server goroutine; ListenAndServe returns nil after a
	// clean Shutdown.
	return <-errCh
}
