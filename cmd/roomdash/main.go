// roomdash serves a single normalised view of climate devices.
//
// Device state comes from a local home-automation hub when one is
// configured, falling back to a cloud device registry. The result is
// exposed as JSON under /api and rendered by the bundled dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/roomdash/internal/infrastructure/config"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnv names the variable consulted when --config is not given.
const configEnv = "ROOMDASH_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "roomdash",
		Short:         "Room climate dashboard",
		Long:          "roomdash normalises climate device state from a local hub or a cloud registry and serves it over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// A bare invocation behaves like "roomdash serve".
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to config.yaml (defaults to $"+configEnv+", then built-in defaults)")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"},
		"dotenv files loaded before configuration")

	cmd.AddCommand(
		newServeCmd(opts),
		newRoomsCmd(opts),
		newSnapshotCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig loads dotenv files and then the configuration.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(o.envFiles...); err != nil {
		return nil, err
	}
	path := o.configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
