// Package historycmder provides the history command for listing past views.
package historycmder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spoolworks/reel/pkg/cliui"
	"github.com/spoolworks/reel/pkg/config"
	"github.com/spoolworks/reel/pkg/dotdir"
	"github.com/spoolworks/reel/pkg/history"
)

const historyLongDesc string = `List recently viewed trajectories.

Every "reel view" records what was opened (a file path or a run
coordinate) in a local SQLite database under the .reel/ directory.
Only references are stored. Fetched payloads are never persisted.`

const historyShortDesc string = "List recently viewed trajectories"

type historyCommander struct {
	sqlitePath string
	limit      int
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.runList(cmd.Context(), configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of entries to show")

	cmd.AddCommand(newClearCmd(cmder))

	return cmd
}

func newClearCmd(cmder *historyCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the view history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.runClear(cmd.Context(), configDir)
		},
	}
}

func (c *historyCommander) runList(ctx context.Context, configDir string) error {
	store, err := c.openStore(configDir)
	if err != nil {
		return err
	}
	defer store.Close()

	views, err := store.Recent(ctx, c.limit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(views) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No view history yet."))
		return nil
	}

	fmt.Println()
	for _, v := range views {
		fmt.Printf("  %s  %s %s %s\n",
			cliui.DimStyle.Render(v.ViewedAt.Local().Format("2006-01-02 15:04")),
			cliui.KeyStyle.Render(v.Kind),
			cliui.ValueStyle.Render(v.Reference),
			cliui.DimStyle.Render(fmt.Sprintf("(%d items)", v.ItemCount)),
		)
	}
	fmt.Println()

	return nil
}

func (c *historyCommander) runClear(ctx context.Context, configDir string) error {
	store, err := c.openStore(configDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}

	fmt.Printf("\n  %s History cleared\n\n", cliui.SuccessMark)
	return nil
}

// openStore resolves the database path and opens the history store.
// An explicit --sqlite path wins, otherwise the database lives in the
// resolved .reel/ directory.
func (c *historyCommander) openStore(configDir string) (*history.SQLiteStore, error) {
	path := c.sqlitePath
	if path == "" {
		ddm := dotdir.NewManager()
		target, err := ddm.Target(configDir)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(target, "history.db")
	}

	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return store, nil
}
