// Package main provides the sheetimport CLI.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dreamph/sheetimport"
	"github.com/dreamph/sheetimport/internal/config"
	"github.com/dreamph/sheetimport/internal/logging"
	"github.com/dreamph/sheetimport/internal/web"
	"github.com/dreamph/sheetimport/inventory"
)

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := newRootCmd(cfg).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "sheetimport",
		Short:         "Validate and import comic book inventory spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCmd(cfg), newTemplateCmd(), newServeCmd(cfg))
	return root
}

func newImportCmd(cfg *config.Config) *cobra.Command {
	var (
		sheet      string
		noHeader   bool
		maxSize    float64
		threshold  int
		reportPath string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "import [input.xlsx]",
		Short: "Validate a workbook and print the imported items as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ic := cfg.Import
			if cmd.Flags().Changed("sheet") {
				ic.Sheet = sheet
			}
			if cmd.Flags().Changed("no-header") {
				ic.HasHeaders = !noHeader
			}
			if cmd.Flags().Changed("max-size") {
				ic.MaxSizeMiB = maxSize
			}
			if cmd.Flags().Changed("threshold") {
				ic.ErrorThreshold = threshold
			}

			summary, err := inventory.ImportFile(cmd.Context(), args[0], ic.Options()...)
			if err != nil {
				return reportFailure(cmd.ErrOrStderr(), err, reportPath)
			}
			return writeJSON(cmd.OutOrStdout(), summary, pretty)
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Use column letters instead of header names")
	cmd.Flags().Float64Var(&maxSize, "max-size", 0, "Maximum file size in MiB, negative to disable")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Stop after this many errors, negative to disable")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write rejected diagnostics to this .xlsx file")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty inventory workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return inventory.WriteTemplate(cmd.OutOrStdout())
			}
			var buf bytes.Buffer
			if err := inventory.WriteTemplate(&buf); err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP upload server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			slog.Info("configuration loaded", "config", cfg.String())

			server := web.NewServer(cfg)
			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			slog.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "Port to listen on")
	return cmd
}

// reportFailure prints every diagnostic and, when asked, writes them to a
// report workbook. It returns the import error so the exit code is non-zero.
func reportFailure(w io.Writer, err error, reportPath string) error {
	var verrs sheetimport.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, msg := range verrs.Messages() {
		fmt.Fprintln(w, msg)
	}
	if reportPath != "" {
		var buf bytes.Buffer
		if rerr := sheetimport.WriteErrorReport(&buf, verrs); rerr != nil {
			return rerr
		}
		if werr := os.WriteFile(reportPath, buf.Bytes(), 0644); werr != nil {
			return fmt.Errorf("failed to write report: %w", werr)
		}
	}
	return fmt.Errorf("import rejected with %d error(s)", len(verrs))
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
