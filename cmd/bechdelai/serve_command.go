package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the JSON API (movie search and profiles, ratings, subtitle analysis
and the run journal) until interrupted. Logs older than
logging.retention_days and expired cache entries are pruned at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.serviceValue()
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()
			pruneOnStartup(cmd, ctx)

			if strings.TrimSpace(bind) == "" {
				bind = cfg.Paths.APIBind
			}
			server := api.NewServer(svc, bind, logger)
			if err := server.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s/api\n", server.Addr())
			<-cmd.Context().Done()
			server.Stop()
			logger.Info("api server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default paths.api_bind)")
	return cmd
}

func pruneOnStartup(cmd *cobra.Command, ctx *commandContext) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return
	}
	logger := ctx.loggerValue()
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "*.log*",
		Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
	})
	st, err := ctx.storeValue()
	if err != nil || !cfg.HTTPCacheEnabled() {
		return
	}
	ttl := time.Duration(cfg.Scraper.CacheTTLHours) * time.Hour
	if removed, err := st.CachePrune(cmd.Context(), ttl); err != nil {
		logging.WarnWithContext(logger, "cache prune failed", "cache_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "expired responses stay on disk"),
			logging.String(logging.FieldErrorHint, "run bechdelai cache prune"))
	} else if removed > 0 {
		logger.Info("pruned http cache", logging.Int64("removed", removed))
	}
}
