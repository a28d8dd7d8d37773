package cli

import (
	"errors"
	"fmt"

	"coopcart-cli/internal/session"

	"github.com/spf13/cobra"
)

func newRoomCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Create, join, leave or inspect the shared room",
	}

	cmd.AddCommand(newRoomCreateCmd(app))
	cmd.AddCommand(newRoomJoinCmd(app))
	cmd.AddCommand(newRoomLeaveCmd(app))
	cmd.AddCommand(newRoomShowCmd(app))
	return cmd
}

func newRoomCreateCmd(app *App) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room (purges all local list state first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			room, err := e.sess.CreateRoom(cmd.Context(), optional(pin))
			if err != nil {
				return writeErr(cmd, err)
			}

			if app.JSON {
				return writeOut(cmd, app, map[string]any{"room": room})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created room %s\n", styleRoomCode.Render(room.RoomCode))
			if pin != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "PIN required to join.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Optional PIN for the room")
	return cmd
}

func newRoomJoinCmd(app *App) *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "join <room-code>",
		Short: "Join an existing room (purges all local list state first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			room, err := e.sess.JoinRoom(cmd.Context(), args[0], optional(pin))
			if err != nil {
				var refused session.JoinRefusedError
				if errors.As(err, &refused) {
					return writeErr(cmd, fmt.Errorf("could not join %s: %s", args[0], refused.Message))
				}
				return writeErr(cmd, err)
			}

			if app.JSON {
				return writeOut(cmd, app, map[string]any{"room": room})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined room %s\n", styleRoomCode.Render(room.RoomCode))
			return nil
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "Room PIN, if the room has one")
	return cmd
}

func newRoomLeaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Leave the current room and discard all local list state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.requireSession(); err != nil {
				return writeErr(cmd, err)
			}
			if err := e.sess.LeaveRoom(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeOut(cmd, app, map[string]any{"left": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Left room.")
			return nil
		},
	}
}

func newRoomShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current room binding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := e.requireSession()
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeOut(cmd, app, sess)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Room %s (space %s, v%d)\n",
				styleRoomCode.Render(sess.Room.RoomCode), sess.SpaceID, sess.Version)
			return nil
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
