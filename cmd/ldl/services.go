package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/and161185/lab-data-logger/internal/client"
	"github.com/and161185/lab-data-logger/internal/config"
	"github.com/and161185/lab-data-logger/internal/dataservice"
	"github.com/and161185/lab-data-logger/internal/display"
	"github.com/and161185/lab-data-logger/internal/manager"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/server"
	"github.com/and161185/lab-data-logger/model"
	"github.com/spf13/cobra"
)

func newServicesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Run and manage DataServices",
	}
	cmd.AddCommand(
		newServiceRunCmd(a),
		newPullCmd(a),
		newManagerCmd(a),
	)
	return cmd
}

func newServiceRunCmd(a *app) *cobra.Command {
	var flags *config.ServiceFlags
	cmd := &cobra.Command{
		Use:   "run <descriptor>",
		Short: "Serve one DataService",
		Long:  "Serve one DataService. Builtin descriptors: " + fmt.Sprint(dataservice.Default().Names()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			svc, err := dataservice.Default().New(args[0], cfg.Settings)
			if err != nil {
				return err
			}
			logger, err := a.serverLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Infow("starting data service", "service", svc.ServiceName(), "port", cfg.Port)
			srv := server.New(":"+strconv.Itoa(cfg.Port), dataservice.Handler(svc, logger), logger)
			return serve(cmd.Context(), srv, logger, func() {})
		},
	}
	flags = config.NewServiceFlags(cmd.Flags())
	return cmd
}

func newPullCmd(a *app) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "pull <netloc>",
		Short: "Fetch one sample from a DataService and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			netloc, err := model.ParseNetloc(args[0])
			if err != nil {
				return err
			}
			ds := client.NewDataServiceClient(netloc, rpc.NewHTTPClient(a.cfg.Timeout))

			name, err := ds.ServiceName(cmd.Context())
			if err != nil {
				return err
			}
			data, err := ds.GetData(cmd.Context(), fields)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s at %s\n", name, netloc)
			display.Fields(cmd.OutOrStdout(), data)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&fields, "field", nil, "field to fetch (repeatable, default all)")
	return cmd
}

func newManagerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manager",
		Short: "Run or control the service manager",
	}
	cmd.AddCommand(
		newManagerStartCmd(a),
		newManagerAddCmd(a),
		newManagerRemoveCmd(a),
		newManagerStatusCmd(a),
	)
	return cmd
}

func newManagerStartCmd(a *app) *cobra.Command {
	var flags *config.ManagerFlags
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the service manager and serve its API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			logger, err := a.serverLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			m := manager.New(manager.NewLauncher(dataservice.Default(), logger), cfg.StopTimeout, logger)
			srv := server.New(cfg.Addr, manager.Handler(m, logger), logger)
			return serve(cmd.Context(), srv, logger, m.Close)
		},
	}
	flags = config.NewManagerFlags(cmd.Flags())
	return cmd
}

func newManagerAddCmd(a *app) *cobra.Command {
	var configPath string
	var req rpc.AddServiceRequest
	cmd := &cobra.Command{
		Use:   "add <descriptor> <port>",
		Short: "Spawn a DataService on port",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("port %q: %w", args[1], err)
			}
			req.Descriptor, req.Port = args[0], port
			if configPath != "" {
				if req.Config, err = config.ReadSettings(configPath); err != nil {
					return err
				}
			}

			st, err := a.managerClient().AddService(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started %s on port %d (%s)\n", st.Descriptor, st.Port, st.Launcher)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "JSON or YAML file with service settings")
	cmd.Flags().StringVar(&req.WorkingDir, "working-dir", "", "directory holding service executables")
	return cmd
}

func newManagerRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <port>",
		Short: "Stop the DataService on port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("port %q: %w", args[0], err)
			}
			if err := a.managerClient().RemoveService(cmd.Context(), port); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped service on port %d\n", port)
			return nil
		},
	}
}

func newManagerStatusCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List spawned DataServices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mc := a.managerClient()
			render := func(ctx context.Context, w io.Writer) error {
				st, err := mc.Status(ctx)
				if err != nil {
					return err
				}
				display.Manager(w, st)
				return nil
			}
			return runStatus(cmd, watch, render)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh until interrupted")
	return cmd
}
