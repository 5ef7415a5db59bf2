package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/lab-data-logger/internal/buildinfo"
	"github.com/and161185/lab-data-logger/internal/client"
	"github.com/and161185/lab-data-logger/internal/config"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// app carries the global flags to every subcommand.
type app struct {
	flags *config.ClientFlags
	cfg   *config.ClientConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ldl",
		Short:         "Lab data logger",
		Version:       buildinfo.Version(),
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := a.flags.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	a.flags = config.NewClientFlags(root.PersistentFlags())

	root.AddCommand(
		newRecorderCmd(a),
		newServicesCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.Print(cmd.OutOrStdout())
		},
	}
}

// serverLogger is the logger of long-running commands.
func (a *app) serverLogger() (*zap.SugaredLogger, error) {
	return config.NewLogger(a.cfg.LogLevel)
}

func (a *app) recorderClient() *client.RecorderClient {
	return client.NewRecorderClient(a.cfg.RecorderAddr, rpc.NewHTTPClient(a.cfg.Timeout))
}

func (a *app) managerClient() *client.ManagerClient {
	return client.NewManagerClient(a.cfg.ManagerAddr, rpc.NewHTTPClient(a.cfg.Timeout))
}

// interruptible returns a context cancelled on SIGINT or SIGTERM.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// serve runs srv until an interrupt or a server failure. cleanup runs on
// every return path, after the server has stopped taking requests.
func serve(ctx context.Context, srv *server.Server, logger *zap.SugaredLogger, cleanup func()) error {
	defer cleanup()

	ctx, stop := interruptible(ctx)
	defer stop()

	if err := srv.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve %s: %w", srv.Addr(), err)
	}
	return nil
}
