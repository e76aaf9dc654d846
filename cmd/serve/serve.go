// Package serve provides the "sheetsight serve" command.
package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/klytics/sheetsight/cmd/cmdutil"
	"github.com/klytics/sheetsight/cmd/version"
	"github.com/klytics/sheetsight/internal/server"
	"github.com/klytics/sheetsight/internal/watch"
)

// NewCommand creates the "serve" command.
func NewCommand() *cobra.Command {
	var (
		addr string
		dirs []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the SheetSight HTTP API. Requests are scoped to the user named by
the X-User-ID header. Prometheus metrics are served on /metrics.

When watch directories are configured (watch.dirs or --watch), spreadsheets
dropped into them are ingested for watch.owner while the server runs.

Example:
  sheetsight serve --addr :8080
  sheetsight serve --watch ./inbox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cmdutil.Build(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.Config.Server.Addr
			}
			if len(dirs) == 0 {
				dirs = a.Config.Watch.Dirs
			}

			srv := server.New(a.Service,
				server.WithLogger(a.Logger),
				server.WithMetrics(a.Metrics.Handler(), a.Metrics),
				server.WithMaxUpload(int64(a.Config.Server.MaxUploadMB)<<20),
				server.WithVersion(version.Version),
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return srv.ListenAndServe(ctx, addr)
			})

			if len(dirs) > 0 {
				owner := cmdutil.Owner(a)
				w, err := watch.New(watch.Config{
					Dirs:     dirs,
					Debounce: time.Duration(a.Config.Watch.DebounceMs) * time.Millisecond,
				}, func(ctx context.Context, path string) error {
					_, err := a.Service.IngestFile(ctx, owner, path)
					return err
				}, a.Logger)
				if err != nil {
					return err
				}
				g.Go(func() error {
					return w.Run(ctx)
				})
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "SheetSight %s listening on %s\n", version.Version, addr)
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	cmd.Flags().StringSliceVar(&dirs, "watch", nil, "Inbox directories to ingest from")
	return cmd
}
