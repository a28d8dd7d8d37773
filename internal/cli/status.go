package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show room binding, tracked version and pending changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			pending, err := e.queue.Len(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			lastSync, hasSynced, err := e.st.GetMeta(cmd.Context(), lastSyncMetaKey)
			if err != nil {
				return writeErr(cmd, err)
			}

			sess, bound := e.sess.Current()
			if app.JSON {
				out := map[string]any{
					"bound":   bound,
					"pending": pending,
					"items":   len(e.list.Items()),
					"status":  string(e.sync.Status()),
				}
				if bound {
					out["roomCode"] = sess.Room.RoomCode
					out["spaceId"] = sess.SpaceID
					out["version"] = sess.Version
				}
				if hasSynced {
					out["lastSyncAt"] = lastSync
				}
				return writeOut(cmd, app, out)
			}

			if !bound {
				fmt.Fprintln(cmd.OutOrStdout(), "No room bound.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Room %s  v%d\n", styleRoomCode.Render(sess.Room.RoomCode), sess.Version)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d item(s), %d pending change(s)\n", len(e.list.Items()), pending)
			if hasSynced {
				fmt.Fprintf(cmd.OutOrStdout(), "Last synced %s\n", lastSync)
			}
			return nil
		},
	}
}

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the sync server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := e.gw.Health(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeOut(cmd, app, h)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d room(s), %d list(s)\n", h.Status, h.Rooms, h.Lists)
			return nil
		},
	}
}
