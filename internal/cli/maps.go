package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trackplan/pkg/mapdata"
)

// mapCommand manages map documents in the MongoDB map source.
func (c *CLI) mapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Manage maps in the MongoDB map source",
	}
	cmd.AddCommand(c.mapPushCommand())
	return cmd
}

func (c *CLI) mapPushCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a map file to the configured MongoDB collection",
		Long: `Push validates a JSON or TOML map file and upserts it into mongo.database /
mongo.collection under its name, so "serve" can load it with map.source = "mongo".`,
		Example: `  trackplan map push examples/floor.toml
  trackplan map push mapa.json --name lab-2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mapdata.LoadFile(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				m.Name = name
			}

			cfg, err := c.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if cfg.Mongo.URI == "" {
				return fmt.Errorf("mongo.uri is not configured")
			}

			ctx := cmd.Context()
			l, err := mapdata.NewMongoLoader(ctx, mapdata.MongoConfig{
				URI:        cfg.Mongo.URI,
				Database:   cfg.Mongo.Database,
				Collection: cfg.Mongo.Collection,
				Name:       m.Name,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := l.Close(context.Background()); err != nil {
					c.Logger.Warn("close mongo", "err", err)
				}
			}()
			if err := l.Save(ctx, m); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Pushed map %s (%dx%d, %d walls)", m.Name, m.Width, m.Height, len(m.Walls))
			printDetail(out, "%s.%s", cfg.Mongo.Database, cfg.Mongo.Collection)
			printNextStep(out, "Serve it", "TRACKPLAN_MAP_SOURCE=mongo TRACKPLAN_MAP_NAME="+m.Name+" "+appName+" serve")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "document name (default: the map's name)")
	return cmd
}
