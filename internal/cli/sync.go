package cli

import (
	"fmt"
	"time"

	"coopcart-cli/internal/syncer"

	"github.com/spf13/cobra"
)

// lastSyncMetaKey records when a round last committed, for `status`.
const lastSyncMetaKey = "last_sync_at"

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync round against the room's server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.requireSession(); err != nil {
				return writeErr(cmd, err)
			}

			res, err := e.sync.Sync(cmd.Context())
			if err != nil {
				if syncer.RoomExpired(err) {
					return writeErr(cmd, fmt.Errorf("this room no longer exists on the server; run `coopcart room create` to start a new one (%w)", err))
				}
				return writeErr(cmd, fmt.Errorf("sync failed: %w", err))
			}

			if res != nil {
				if err := e.st.SetMeta(cmd.Context(), lastSyncMetaKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
					e.logger.Debug("could not record sync time", "err", err)
				}
			}

			if res == nil {
				if app.JSON {
					return writeOut(cmd, app, map[string]any{"status": string(e.sync.Status()), "synced": false})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Already up to date.")
				return nil
			}

			if app.JSON {
				return writeOut(cmd, app, map[string]any{
					"status":        string(e.sync.Status()),
					"synced":        true,
					"serverVersion": res.ServerVersion,
					"pushed":        res.Pushed,
					"discarded":     res.Discarded,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced to v%d", res.ServerVersion)
			if res.Pushed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d change(s) pushed)", res.Pushed)
			}
			if res.Discarded > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d local change(s) discarded: the room had newer state)", res.Discarded)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
