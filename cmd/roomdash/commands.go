package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/roomdash/internal/infrastructure/logging"
	"github.com/nerrad567/roomdash/internal/provider"
)

func newRoomsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "Fetch devices once and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			set := buildProviders(cfg, logging.Discard(), nil)
			agg, err := provider.NewAggregator(provider.Deps{
				Providers: set.providers(),
				Logger:    logging.Discard(),
			})
			if err != nil {
				return err
			}
			devices, err := agg.Rooms(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching rooms: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), devices)
		},
	}
}

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "List cloud registry devices as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			set := buildProviders(cfg, logging.Discard(), nil)
			summaries, err := set.cloud.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching snapshot: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), summaries)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "roomdash %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
