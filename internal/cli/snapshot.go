package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trackplan/internal/config"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/render"
	"github.com/matzehuels/trackplan/pkg/session"
)

func (c *CLI) snapshotCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "snapshot <session-id>",
		Short: "Print a stored session snapshot",
		Long: `Snapshot reads the latest state a running service persisted for a session
from the configured snapshot store. With store.backend = "none" the local file
store is used.`,
		Example: `  trackplan snapshot 6f1c2d3e-...
  trackplan snapshot 6f1c2d3e-... --store-dir /var/lib/trackplan --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadStoredSnapshot(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			printScene(out, render.FromSnapshot(snap))
			printKeyValue(out, "session", snap.ID)
			printKeyValue(out, "agent", fmt.Sprintf("%d at %v", snap.Agent, snap.Start))
			printKeyValue(out, "goal", snap.Goal.String())
			printKeyValue(out, "path", fmt.Sprintf("%d cells", len(snap.Path)))
			printKeyValue(out, "visited", fmt.Sprintf("%d cells", len(snap.Visited)))
			if len(snap.Pending) > 0 {
				printKeyValue(out, "pending", cellList(snap.Pending))
			}
			printKeyValue(out, "saved", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if !snap.Reached {
				printWarning(out, "Route does not reach the goal")
			}
			return nil
		},
	}

	cmd.Flags().String("store-dir", "", "read snapshots from this file store directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")

	return cmd
}

// loadStoredSnapshot opens the configured store, or a file store when
// --store-dir is given or no backend is configured, and reads id's snapshot.
func (c *CLI) loadStoredSnapshot(cmd *cobra.Command, id string) (*session.Snapshot, error) {
	cfg, err := c.loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("store-dir"); f != nil && f.Changed {
		cfg.Store.Backend = config.BackendFile
		cfg.Store.Dir = f.Value.String()
	}
	if cfg.Store.Backend == config.BackendNone {
		cfg.Store.Backend = config.BackendFile
	}

	store, err := c.openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return session.LoadSnapshot(cmd.Context(), store, storeKeyer(cfg), id)
}

func cellList(cells []grid.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
