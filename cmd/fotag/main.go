package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/fotag/internal/config"
	"github.com/pders01/fotag/internal/debuglog"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	_ = debuglog.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "fotag",
		Short: "Browse public Flickr photos by tag",
		Long: `fotag searches the public Flickr photo feed by tag.

Without a subcommand it starts the interactive gallery. Results are
archived locally and can be searched offline.

Example usage:
  fotag                      # Start the gallery
  fotag search cats dogs     # Print the latest photos for each tag
  fotag history              # List earlier searches
  fotag find tabby           # Search archived photos`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGallery(cmd, o)
		},
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&o.dbPath, "db", "", "Path to database file (overrides config)")
	root.PersistentFlags().BoolVarP(&o.quiet, "quiet", "q", false, "Skip startup banner")

	root.AddCommand(
		newSearchCmd(o),
		newHistoryCmd(o),
		newFindCmd(o),
		newConfigCmd(o),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration, applies flag overrides and sets up logging.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if o.dbPath != "" {
		cfg.Database.Path = expandTilde(o.dbPath)
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	debuglog.WithFields(map[string]any{
		"db":     cfg.Database.Path,
		"format": cfg.Feed.Format,
	}).Infof("fotag %s starting", Version)
	return cfg, nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
