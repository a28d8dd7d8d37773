package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"coopcart-cli/internal/api"
	"coopcart-cli/internal/config"
	"coopcart-cli/internal/format"
	"coopcart-cli/internal/list"
	"coopcart-cli/internal/model"
	"coopcart-cli/internal/queue"
	"coopcart-cli/internal/session"
	"coopcart-cli/internal/store"
	"coopcart-cli/internal/syncer"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	BaseURL    string
	ConfigPath string
	JSON       bool
	Pretty     bool
	Verbose    bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "coopcart",
		Short:        "CoopCart: shared grocery list with offline-first sync",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a shared room and add items
  coopcart room create
  coopcart add "milk"
  coopcart add "2kg flour" --parse

  # See the list, check things off, sync with the room
  coopcart list
  coopcart check <item-id>
  coopcart sync

  # Join someone else's room
  coopcart room join ABC123 --pin 1234
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("COOPCART_DIR", ""), "Data directory (default: ~/.coopcart)")
	cmd.PersistentFlags().StringVar(&app.BaseURL, "base-url", envOr("COOPCART_API_BASE", ""), "Sync server base URL")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file path (default: ~/.coopcart/config.toml)")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&app.Verbose, "verbose", false, "Debug logging")

	cmd.AddCommand(newRoomCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newCheckCmd(app))
	cmd.AddCommand(newUpdateCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newHealthCmd(app))

	return cmd
}

// env is one fully wired core: store, queue, list controller, gateway,
// session manager and sync controller, sharing a single data directory.
type env struct {
	cfg    config.Config
	st     store.Store
	reg    store.SessionRegister
	queue  *queue.Queue
	list   *list.Controller
	sess   *session.Manager
	gw     *api.Client
	sync   *syncer.Controller
	logger *slog.Logger
}

func (app *App) setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, err
	}

	dir := app.Dir
	if dir == "" {
		dir = cfg.DataDir
	}
	baseURL := app.BaseURL
	if baseURL == "" {
		baseURL = cfg.APIBase
	}

	level := slog.LevelInfo
	if app.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st := store.Store{Dir: dir}
	reg := store.SessionRegister{Dir: dir}
	q := queue.New(st, store.NewID)
	lc := list.NewController(st, model.DefaultSpaceID)
	if err := lc.Load(ctx); err != nil {
		return nil, err
	}
	gw := api.NewClient(baseURL)
	mgr := session.NewManager(st, reg, q, lc, gw, model.DefaultSpaceID)
	if _, err := mgr.Restore(); err != nil {
		// An unreadable register must not lock the user out of the commands
		// that can replace it. Treat it as unbound.
		logger.Warn("ignoring unreadable session register; treating as unbound", "err", err)
	}

	return &env{
		cfg:    cfg,
		st:     st,
		reg:    reg,
		queue:  q,
		list:   lc,
		sess:   mgr,
		gw:     gw,
		sync:   syncer.NewController(gw, q, lc, mgr, logger),
		logger: logger,
	}, nil
}

// requireSession returns the bound session or a guidance error.
func (e *env) requireSession() (model.Session, error) {
	sess, ok := e.sess.Current()
	if !ok {
		return model.Session{}, fmt.Errorf("no room bound; run `coopcart room create` or `coopcart room join <code>`")
	}
	return sess, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteJSON(cmd.OutOrStdout(), v, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
