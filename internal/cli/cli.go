// Package cli implements the commitcanvas command-line interface.
//
// This package provides commands for loading commit histories from git,
// rendering them as layered diagrams, browsing them interactively, serving
// the HTTP API, and managing the artifact cache. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - load: Walk a repository's history and write the graph as JSON
//   - render: Generate DOT, SVG, or PNG diagrams
//   - browse: Interactive commit browser
//   - serve: Run the HTTP API
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/commitcanvas/pkg/buildinfo"
	"github.com/matzehuels/commitcanvas/pkg/cache"
	"github.com/matzehuels/commitcanvas/pkg/config"
	"github.com/matzehuels/commitcanvas/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "commitcanvas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Commitcanvas visualizes git history as layered diagrams",
		Long:         `Commitcanvas walks a repository's commit graph, assigns every commit a topological layer, and renders the result as a diagram where parents always sit strictly below their children.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir)")

	// Register all subcommands
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// loadConfig reads the config file selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := c.newCache(cmd, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil), nil
}

// newCache builds the cache backend selected by config, falling back to a
// null cache when the backend cannot be set up.
func (c *CLI) newCache(cmd *cobra.Command, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cmd.Context(), cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Debug("no cache dir available, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard
// (~/.cache/commitcanvas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// repoNameFromDir derives a repo identifier from a directory path.
func repoNameFromDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}
