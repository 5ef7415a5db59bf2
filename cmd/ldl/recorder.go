package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/and161185/lab-data-logger/internal/client"
	"github.com/and161185/lab-data-logger/internal/config"
	"github.com/and161185/lab-data-logger/internal/display"
	"github.com/and161185/lab-data-logger/internal/metrics"
	"github.com/and161185/lab-data-logger/internal/recorder"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/server"
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/internal/sink/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const defaultInterval = time.Second

func newRecorderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recorder",
		Short: "Run or control the recorder",
	}
	cmd.AddCommand(
		newRecorderStartCmd(a),
		newSetWriterCmd(a),
		newConnectCmd(a),
		newDisconnectCmd(a),
		newRecorderStatusCmd(a),
	)
	return cmd
}

func newRecorderStartCmd(a *app) *cobra.Command {
	var flags *config.RecorderFlags
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the recorder and serve its API",
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

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			rec := recorder.New(recorder.Options{
				Writers:     catalog.Default(),
				Dial:        client.Dialer(cfg.DataServiceTimeout),
				StopTimeout: cfg.StopTimeout,
				Logger:      logger,
				Observer:    metrics.NewPromObs(reg),
			})

			if cfg.Writer != nil {
				st, werr := rec.SetWriter(cmd.Context(), cfg.Writer.SinkType, cfg.Writer.Settings)
				if werr != nil {
					rec.Close()
					return fmt.Errorf("initial writer: %w", werr)
				}
				logger.Infow("writer set", "writer", st.Writer, "id", st.ID)
			}

			srv := server.New(cfg.Addr, recorder.Handler(rec, reg, logger), logger)
			return serve(cmd.Context(), srv, logger, rec.Close)
		},
	}
	flags = config.NewRecorderFlags(cmd.Flags())
	return cmd
}

func newSetWriterCmd(a *app) *cobra.Command {
	var settings sink.Settings
	cmd := &cobra.Command{
		Use:   "set-writer <type>",
		Short: "Replace the recorder's writer",
		Long:  "Replace the recorder's writer. Builtin types: " + fmt.Sprint(catalog.Default().Names()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.recorderClient().SetWriter(cmd.Context(), args[0], settings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "writer %s set (%s)\n", st.Writer, st.ID)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&settings.Addr, "addr", "", "store address, e.g. http://localhost:8086")
	fs.StringVar(&settings.User, "user", "", "store user")
	fs.StringVar(&settings.Password, "password", "", "store password")
	fs.StringVar(&settings.Database, "database", "", "influxdb database")
	fs.StringVar(&settings.Precision, "precision", "", "influxdb timestamp precision")
	fs.StringVar(&settings.DSN, "dsn", "", "postgres connection string")
	fs.StringVar(&settings.Table, "table", "", "postgres table")
	fs.StringVar(&settings.Output, "output", "", "print writer destination: stdout, stderr or a file")
	return cmd
}

func newConnectCmd(a *app) *cobra.Command {
	var req rpc.ConnectSourceRequest
	interval := defaultInterval
	cmd := &cobra.Command{
		Use:   "connect <netloc> <measurement>",
		Short: "Start pulling a DataService into the recorder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Netloc, req.Measurement = args[0], args[1]
			req.Interval = interval.Seconds()
			st, err := a.recorderClient().ConnectSource(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected %s as %s every %gs\n", st.Netloc, st.Measurement, st.Interval)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.DurationVar(&interval, "interval", defaultInterval, "pull interval")
	fs.StringToStringVar(&req.Tags, "tag", nil, "tag attached to every point, k=v (repeatable)")
	fs.StringSliceVar(&req.RequestedFields, "field", nil, "field to keep (repeatable, default all)")
	return cmd
}

func newDisconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <netloc>",
		Short: "Stop pulling a DataService",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.recorderClient().DisconnectSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "disconnected %s: %s\n", resp.Netloc, resp.Exit)
			return nil
		},
	}
}

func newRecorderStatusCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the recorder's writer and sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc := a.recorderClient()
			render := func(ctx context.Context, w io.Writer) error {
				st, err := rc.Status(ctx)
				if err != nil {
					return err
				}
				display.Recorder(w, st)
				return nil
			}
			return runStatus(cmd, watch, render)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh until interrupted")
	return cmd
}

// runStatus renders once, or keeps redrawing until interrupted in watch mode.
func runStatus(cmd *cobra.Command, watch bool, render func(context.Context, io.Writer) error) error {
	if !watch {
		return render(cmd.Context(), cmd.OutOrStdout())
	}
	ctx, stop := interruptible(cmd.Context())
	defer stop()
	return display.Watch(ctx, cmd.OutOrStdout(), display.WatchInterval, render)
}
