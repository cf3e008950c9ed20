// Package configcmder provides the config command for managing persistent
// reel configuration stored in the .reel/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent reel configuration.

Configuration is stored as config.toml in the .reel/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  forge.token, forge.base_url,
  api.listen, storage.sqlite_path,
  viewer.port

Use subcommands to get, set, or list configuration values:
  reel config set <key> <value>    Set a configuration value
  reel config get <key>            Get a configuration value
  reel config list                 List all configuration values

Examples:
  reel config set forge.base_url https://ghe.internal/api/v3
  reel config set viewer.port 9000
  reel config get forge.base_url
  reel config list`

const configShortDesc string = "Manage persistent reel configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
