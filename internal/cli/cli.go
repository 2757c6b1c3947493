package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lockscan/pkg/buildinfo"
	"github.com/matzehuels/lockscan/pkg/cache"
	"github.com/matzehuels/lockscan/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "lockscan"

	// redisKeyPrefix namespaces keys in a shared Redis.
	redisKeyPrefix = "lockscan:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by --config; empty means search the scanned directory.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "lockscan parses JavaScript lockfiles and scans their dependencies",
		Long: `lockscan reads npm, yarn and pnpm lockfiles, extracts the exact set of
installed packages and submits it to a scan API for vulnerability chains,
integrity mismatches and abandoned packages.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.FileName+" in the scanned directory)")

	// Register all subcommands
	root.AddCommand(c.detectCommand())
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Cache Factories
// =============================================================================

// loadConfig loads --config, or the config file found next to target.
func (c *CLI) loadConfig(target string) (*config.Config, error) {
	path := c.configPath
	if path == "" {
		dir := target
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			dir = filepath.Dir(target)
		}
		path = config.Find(dir)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, nil
}

// openCache returns the configured cache and the keyer to use with it.
// A Redis URL selects a shared cache; when Redis is unreachable the file
// cache is used instead.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil, nil
	}
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err == nil {
			c.Logger.Debug("using redis cache")
			return rc, cache.NewScopedKeyer(nil, redisKeyPrefix), nil
		}
		c.Logger.Warn("redis unavailable, using file cache", "error", err)
	}
	fc, err := cache.NewFileCache(cfg.Cache.Dir)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("using file cache", "dir", fc.Dir())
	return fc, nil, nil
}

// targetOf returns the first argument, or the current directory.
func targetOf(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
