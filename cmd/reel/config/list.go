package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spoolworks/reel/pkg/cliui"
	"github.com/spoolworks/reel/pkg/config"
)

const listLongDesc string = `List all configuration values.

Shows every known configuration key with its current value, merged
from the config file and built-in defaults. Unset keys are shown
as <not set>.`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(configDir)
		},
	}

	return cmd
}

func runList(configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target != "" {
		fmt.Printf("\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}

	keys := config.ValidConfigKeys()
	width := 0
	for _, k := range keys {
		if len(k) > width {
			width = len(k)
		}
	}

	for _, k := range keys {
		value, err := cfger.GetConfigValue(k)
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Printf("  %-*s = %s\n",
				width, cliui.KeyStyle.Render(k),
				cliui.DimStyle.Render("<not set>"),
			)
			continue
		}
		fmt.Printf("  %-*s = %s\n",
			width, cliui.KeyStyle.Render(k),
			cliui.ValueStyle.Render(fmt.Sprintf("%q", value)),
		)
	}
	fmt.Println()

	return nil
}
