package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/tasklytics/internal/app"
	"github.com/okian/tasklytics/internal/config"
	"github.com/okian/tasklytics/internal/domain/dashboard"
	"github.com/okian/tasklytics/pkg/logger"
)

// ErrNoData is returned under --strict when the cycle did not render data.
var ErrNoData = errors.New("load cycle did not render data")

type snapshotOptions struct {
	url     string
	out     string
	timeout time.Duration
	asJSON  bool
	strict  bool
}

func newRootCmd(ctx context.Context) *cobra.Command {
	var opts snapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the dashboard once and write it out",
		Long: `Runs a single fetch and render cycle against the configured endpoint and
writes the resulting HTML page, or the JSON snapshot with --json.

Configuration is read like the server does (TASKLYTICS_CONFIG, TASKLYTICS_*);
flags take precedence.

Example usage:
  snapshot --url https://example.test/exec --out dashboard.html
  snapshot --json --timeout 5s
  snapshot --strict          # non-zero exit on empty or failed load`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "upstream endpoint (defaults to endpoint_url)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (defaults to stdout)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "upstream timeout (defaults to fetch_timeout_ms)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "write the JSON snapshot instead of HTML")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail unless the cycle rendered data")

	return cmd
}

func runSnapshot(ctx context.Context, cmd *cobra.Command, opts snapshotOptions) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if opts.url != "" {
		cfg.EndpointURL = opts.url
	}
	timeout := cfg.FetchTimeout()
	if cmd.Flags().Changed("timeout") {
		timeout = opts.timeout
	}

	svc := app.New(
		app.WithLogger(logger.Get().Named("snapshot")),
		app.WithEndpoint(cfg.EndpointURL),
		app.WithFetchTimeout(timeout),
		app.WithBreaker(0, 0),
		app.WithChartJSURL(cfg.ChartJSURL),
		app.WithTimeLayout(cfg.TimeLayout),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer svc.Stop()

	w := cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	snap := svc.Snapshot()
	if err := write(w, svc, snap, opts.asJSON); err != nil {
		return err
	}

	if opts.strict && snap.Outcome != dashboard.OutcomeRendered {
		return fmt.Errorf("%w: %s", ErrNoData, snap.Message)
	}
	return nil
}

func write(w io.Writer, svc *app.Service, snap dashboard.Snapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		return nil
	}
	return svc.RenderPage(w)
}
