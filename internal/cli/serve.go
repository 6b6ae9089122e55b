package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/live"
	"github.com/matzehuels/synthroute/pkg/server"
	"github.com/matzehuels/synthroute/pkg/store"
)

// serveCommand creates the serve command, which runs the HTTP API and the
// live hub.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr            string
		skipEnrich      bool
		allowEmptyRooms bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live hub",
		Long: `Run the HTTP API and live hub.

Endpoints:
  GET    /status                     liveness
  POST   /api/v1/elements            document in, renderer elements out
  POST   /upload_json_body?room_id=  push a document to a live room
  POST   /upload_json_file           same, as a multipart upload
  GET    /rooms, /rooms/{room_id}    stored room documents
  GET    /ws                         live channel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}

			st, err := store.Open(ctx, c.Config.StoreConfig())
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, skipEnrich)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, st, live.NewHub(c.Logger), c.Logger)
			srv.AllowEmptyRooms = allowEmptyRooms
			printInfo("Serving on %s", StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :5099)")
	cmd.Flags().BoolVar(&skipEnrich, "skip-enrich", false, "serve elements without depictions")
	cmd.Flags().BoolVar(&allowEmptyRooms, "allow-empty-rooms", false, "accept uploads to rooms without subscribers")
	return cmd
}
