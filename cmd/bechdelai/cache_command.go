package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP response cache",
	}
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached responses older than the cache TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.storeValue()
			if err != nil {
				return err
			}
			switch {
			case all:
				maxAge = 0
			case maxAge <= 0:
				maxAge = time.Duration(cfg.Scraper.CacheTTLHours) * time.Hour
			}
			removed, err := st.CachePrune(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache entries pruned")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cached responses\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "older-than", 0, "Age threshold (default scraper.cache_ttl_hours)")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every cached response")
	return cmd
}
