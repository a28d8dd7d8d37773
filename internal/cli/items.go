package cli

import (
	"fmt"
	"strings"
	"time"

	"coopcart-cli/internal/model"
	"coopcart-cli/internal/store"

	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	var parse bool

	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add an item to the list (optimistic local write, synced later)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := e.requireSession()
			if err != nil {
				return writeErr(cmd, err)
			}

			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return writeErr(cmd, fmt.Errorf("nothing to add"))
			}

			var items []model.Item
			if parse {
				resp, err := e.gw.ParseText(cmd.Context(), text)
				if err != nil {
					return writeErr(cmd, err)
				}
				items = resp.Items
				for i := range items {
					if items[i].ID == "" {
						items[i].ID = store.NewID()
					}
					items[i].SpaceID = sess.SpaceID
					if items[i].Category == "" {
						items[i].Category = model.DefaultCategory
					}
				}
			} else {
				now := model.NewTime(time.Now())
				raw := text
				items = []model.Item{{
					ID:        store.NewID(),
					SpaceID:   sess.SpaceID,
					RawText:   &raw,
					Name:      text,
					Category:  model.DefaultCategory,
					CreatedAt: now,
					UpdatedAt: now,
					Checked:   false,
				}}
			}

			for i := range items {
				it := items[i]
				if err := e.list.Add(cmd.Context(), it); err != nil {
					return writeErr(cmd, err)
				}
				if _, err := e.queue.Enqueue(cmd.Context(), model.OpAddItem, model.OpData{Item: &it}); err != nil {
					return writeErr(cmd, err)
				}
			}

			if app.JSON {
				return writeOut(cmd, app, map[string]any{"added": items})
			}
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s\n", it.Name, styleDim.Render(it.ID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&parse, "parse", false, "Send the text through the server-side parser (splits, quantities, categories)")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the list grouped by category",
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

			items := e.list.Items()
			if app.JSON {
				return writeOut(cmd, app, map[string]any{"items": items})
			}
			renderList(cmd.OutOrStdout(), items, sess.Room.CategoryOrder())
			return nil
		},
	}
}

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check <item-id>",
		Short: "Toggle an item's checked state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.requireSession(); err != nil {
				return writeErr(cmd, err)
			}

			id := args[0]
			if err := e.list.Toggle(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.queue.Enqueue(cmd.Context(), model.OpToggleItem, model.OpData{ID: id}); err != nil {
				return writeErr(cmd, err)
			}

			it, _ := e.list.Find(id)
			if app.JSON {
				return writeOut(cmd, app, map[string]any{"item": it})
			}
			mark := "[ ]"
			if it.Checked {
				mark = "[x]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, it.Name)
			return nil
		},
	}
}

func newUpdateCmd(app *App) *cobra.Command {
	var (
		name     string
		category string
		unit     string
		notes    string
		qty      float64
	)

	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Update an item's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.requireSession(); err != nil {
				return writeErr(cmd, err)
			}

			patch := map[string]any{}
			if cmd.Flags().Changed("name") {
				patch["name"] = name
			}
			if cmd.Flags().Changed("category") {
				patch["category"] = category
			}
			if cmd.Flags().Changed("unit") {
				patch["unit"] = unit
			}
			if cmd.Flags().Changed("notes") {
				patch["notes"] = notes
			}
			if cmd.Flags().Changed("qty") {
				patch["qty"] = qty
			}
			if len(patch) == 0 {
				return writeErr(cmd, fmt.Errorf("nothing to update; pass at least one of --name/--qty/--unit/--notes/--category"))
			}
			patch["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

			id := args[0]
			if err := e.list.Update(cmd.Context(), id, patch); err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.queue.Enqueue(cmd.Context(), model.OpUpdateItem, model.OpData{ID: id, Patch: patch}); err != nil {
				return writeErr(cmd, err)
			}

			it, _ := e.list.Find(id)
			if app.JSON {
				return writeOut(cmd, app, map[string]any{"item": it})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", it.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&category, "category", "", "Category label")
	cmd.Flags().StringVar(&unit, "unit", "", "Unit (kg, l, pcs, ...)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	cmd.Flags().Float64Var(&qty, "qty", 0, "Quantity")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <item-id>",
		Aliases: []string{"rm"},
		Short:   "Remove an item from the list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.requireSession(); err != nil {
				return writeErr(cmd, err)
			}

			id := args[0]
			if err := e.list.Remove(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			if _, err := e.queue.Enqueue(cmd.Context(), model.OpRemoveItem, model.OpData{ID: id}); err != nil {
				return writeErr(cmd, err)
			}

			if app.JSON {
				return writeOut(cmd, app, map[string]any{"removed": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", styleDim.Render(id))
			return nil
		},
	}
}
