// Package cli implements the trackplan command-line interface.
//
// # Commands
//
//   - serve: run the HTTP and WebSocket planning service
//   - plan: plan one route on a map file and print it
//   - render: draw a map or a stored session as text, DOT, SVG, PNG or PDF
//   - snapshot: print a session snapshot from the snapshot store
//   - cache: manage the local plan and snapshot cache
//   - map: upload map files to the MongoDB map source
//
// All commands accept --verbose (-v) for debug logging and --config for an
// explicit TOML config file.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trackplan/pkg/buildinfo"
)

const appName = "trackplan"

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

// New creates a CLI logging to w at level.
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
		Short: "trackplan plans and replans agent routes on grid maps",
		Long: `trackplan computes shortest routes for agents on a grid with walls, preferred
tracks and temporary obstacles, and repairs them incrementally as the map
changes or the agent moves.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(os.Stdout)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./trackplan.toml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.mapCommand())
	root.AddCommand(c.completionCommand())

	return root
}
