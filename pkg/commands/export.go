package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/statex/statex/pkg/client"
	"github.com/statex/statex/pkg/export"
	"github.com/statex/statex/pkg/recorder"
	"github.com/statex/statex/pkg/recorder/memory"
)

var (
	exportInput        string
	exportServer       string
	exportOutput       string
	exportFormat       string
	exportIDs          []string
	exportStart        string
	exportEnd          string
	exportTimezone     string
	exportPattern      string
	exportDelimiter    string
	exportDecimalComma bool
	exportSplit        bool
)

// NewExportCmd creates the export subcommand.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export statistics from a snapshot or a running server",
		Long: `Export statistics as CSV, TSV or JSON. Reads either a local snapshot
file (--input) or a running statex server (--server). Without --output
the export streams to stdout; logs go to stderr.

Example:
  statex export --input statistics.json --format csv
  statex export --input statistics.json --split -o backup/march
  statex export --server http://localhost:8080 --ids sensor.energy -o energy
  statex export --input statistics.json --start 2024-03-01T00:00:00Z --end 2024-04-01T00:00:00Z`,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportInput, "input", "i", "", "Snapshot file to export from")
	cmd.Flags().StringVar(&exportServer, "server", "", "Base URL of a running statex server")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path without extension (default: stdout)")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "tsv", "Output format: csv, tsv or json")
	cmd.Flags().StringSliceVar(&exportIDs, "ids", nil, "Statistic ids to include (default: all)")
	cmd.Flags().StringVar(&exportStart, "start", "", "Window start (RFC3339)")
	cmd.Flags().StringVar(&exportEnd, "end", "", "Window end (RFC3339)")
	cmd.Flags().StringVar(&exportTimezone, "timezone", "", "IANA timezone for rendered datetimes (default: UTC)")
	cmd.Flags().StringVar(&exportPattern, "pattern", "", "strftime layout for bucket starts")
	cmd.Flags().StringVar(&exportDelimiter, "delimiter", "", "Cell separator override for csv and tsv")
	cmd.Flags().BoolVar(&exportDecimalComma, "decimal-comma", false, "Render numbers with a decimal comma")
	cmd.Flags().BoolVar(&exportSplit, "split", false, "Write separate sensor and counter files")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	if (exportInput == "") == (exportServer == "") {
		return fmt.Errorf("exactly one of --input or --server is required")
	}
	if exportSplit && exportServer != "" {
		return fmt.Errorf("--split requires a local snapshot (--input)")
	}

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	if len(exportDelimiter) > 1 {
		return fmt.Errorf("--delimiter must be a single character")
	}
	start, err := export.ParseTime(exportStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := export.ParseTime(exportEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	opts := export.ExportOptions{
		Start:        start,
		End:          end,
		StatisticIDs: exportIDs,
		Format:       format,
		Delimiter:    exportDelimiter,
		Timezone:     exportTimezone,
		Pattern:      exportPattern,
	}
	if exportDecimalComma {
		opts.DecimalSeparator = ","
	}

	if exportServer != "" {
		return exportRemote(cmd.Context(), opts)
	}
	return exportLocal(cmd.Context(), opts)
}

func exportLocal(ctx context.Context, opts export.ExportOptions) error {
	snap, err := recorder.LoadSnapshot(exportInput)
	if err != nil {
		return err
	}
	source := memory.FromSnapshot(snap)
	defer source.Close()

	exporter := export.NewExporter(source, logrus.StandardLogger())

	if exportSplit {
		fileOpts := export.FileOptions{
			ExportOptions: opts,
			SplitByKind:   true,
		}
		if exportOutput != "" {
			fileOpts.Dir = filepath.Dir(exportOutput)
			fileOpts.Filename = filepath.Base(exportOutput)
		}
		_, files, err := exporter.ExportFiles(ctx, fileOpts)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "Written to: %s (%d rows)\n", f.Path, f.Rows)
		}
		return nil
	}

	return withDestination(opts.Format, func(w io.Writer) error {
		_, err := exporter.Export(ctx, w, opts)
		return err
	})
}

func exportRemote(ctx context.Context, opts export.ExportOptions) error {
	c, err := client.New(client.Config{BaseURL: exportServer, Retries: 2})
	if err != nil {
		return err
	}

	return withDestination(opts.Format, func(w io.Writer) error {
		n, err := c.Export(ctx, w, opts)
		if err != nil {
			return err
		}
		logrus.Debugf("Received %d bytes from %s", n, exportServer)
		return nil
	})
}

// withDestination runs fn against stdout or, with --output set, against
// a freshly created file named after the export format.
func withDestination(format export.Format, fn func(io.Writer) error) error {
	if exportOutput == "" {
		return fn(os.Stdout)
	}

	path := exportOutput + "." + format.Extension()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	fmt.Fprintf(os.Stderr, "Written to: %s\n", path)
	return nil
}
