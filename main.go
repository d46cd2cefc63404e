package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"table-views/api"
	"table-views/config"
	"table-views/logging"
	"table-views/storage"
	"table-views/view"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "table-views",
		Short:        "Saved table views: filters, sort and column layout",
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	views := &cobra.Command{Use: "views", Short: "Inspect saved views"}
	views.AddCommand(newListCmd(), newStatsCmd(), newExportCmd())
	root.AddCommand(newServeCmd(), views)
	return root
}

// openStore loads config, the logger and the store. The returned closer
// releases the storage medium.
func openStore(cmd *cobra.Command) (config.Config, zerolog.Logger, *view.Store, io.Closer, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return cfg, zerolog.Nop(), nil, nil, err
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	medium, closer, err := storage.Open(cfg.Backend, cfg.Path)
	if err != nil {
		return cfg, log, nil, nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}
	store := view.NewStore(cmd.Context(), medium,
		view.WithLogger(log.With().Str("component", "view-store").Logger()))
	return cfg, log, store, closer, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the view API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, store, closer, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           api.RegisterRoutes(store, log.With().Str("component", "api").Logger(), cfg.CORSOrigins...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Str("backend", cfg.Backend).Str("path", cfg.Path).Msg("table-views listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
				log.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("shutdown")
				}
			}
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List views, most used first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, store, closer, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUSES\tLAST USED")
			for _, v := range store.Search(query) {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", v.ID, v.Name, v.UsageCount,
					time.UnixMilli(v.LastUsed).Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only views whose name or description contains this")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, store, closer, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			st := store.StorageStats()
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d views (%d%% full)\n", st.Count, st.Limit, st.PercentFull)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all views as JSON to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, store, closer, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(store.Views())
		},
	}
}
