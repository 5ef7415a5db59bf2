// Package display renders control-plane snapshots as text tables.
package display

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/olekukonko/tablewriter"
)

// WatchInterval is the refresh period of watch mode.
const WatchInterval = 500 * time.Millisecond

const clearScreen = "\033[H\033[2J"

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

// Recorder renders the writer line followed by one row per source.
func Recorder(w io.Writer, st rpc.RecorderStatus) {
	if st.Sink == nil {
		fmt.Fprintln(w, "no writer set")
	} else {
		fmt.Fprintf(w, "writer: %s (%s), %d batches written\n", st.Sink.Writer, st.Sink.ID, st.Sink.Counter)
	}

	table := newTable(w, []string{"MEASUREMENT", "NETLOC", "INTERVAL", "COUNTER", "RUNNING"})
	for _, s := range st.Sources {
		table.Append([]string{
			s.Measurement,
			s.Netloc,
			strconv.FormatFloat(s.Interval, 'f', -1, 64) + "s",
			strconv.FormatInt(s.Counter, 10),
			strconv.FormatBool(s.Running),
		})
	}
	table.Render()
}

// Manager renders one row per spawned service.
func Manager(w io.Writer, st rpc.ManagerStatus) {
	table := newTable(w, []string{"PORT", "SERVICE", "LAUNCHER", "RUNNING"})
	for _, s := range st.Services {
		table.Append([]string{
			strconv.Itoa(s.Port),
			s.Descriptor,
			s.Launcher,
			strconv.FormatBool(s.Running),
		})
	}
	table.Render()
}

// Fields renders one pulled sample as NAME | VALUE rows sorted by name.
func Fields(w io.Writer, fields map[string]any) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	table := newTable(w, []string{"FIELD", "VALUE"})
	for _, name := range names {
		table.Append([]string{name, fmt.Sprint(fields[name])})
	}
	table.Render()
}

// Watch redraws render every interval until ctx is done. A failing render is
// shown in place of the table and does not end the loop.
func Watch(ctx context.Context, w io.Writer, interval time.Duration, render func(ctx context.Context, w io.Writer) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var buf bytes.Buffer
		if err := render(ctx, &buf); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			buf.Reset()
			fmt.Fprintf(&buf, "error: %v\n", err)
		}
		fmt.Fprint(w, clearScreen)
		if _, err := buf.WriteTo(w); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
