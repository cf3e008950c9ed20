// Package reelcmder
package reelcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/spoolworks/reel/cmd/reel/auth"
	configcmder "github.com/spoolworks/reel/cmd/reel/config"
	historycmder "github.com/spoolworks/reel/cmd/reel/history"
	servecmder "github.com/spoolworks/reel/cmd/reel/serve"
	versioncmder "github.com/spoolworks/reel/cmd/reel/version"
	viewcmder "github.com/spoolworks/reel/cmd/reel/view"
)

const reelLongDesc string = `Reel is a viewer for agent-execution trajectories.

View a local trajectory file or fetch one from a workflow run:
  reel view run.json              View a local trajectory file
  reel view --owner o --repo r --run 123
                                  Fetch and view a workflow run
  reel serve                      Run the API and MCP server
  reel history                    List recently viewed trajectories`

const reelShortDesc string = "Reel - Agent Trajectory Viewer"

func NewReelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reel",
		Short: reelShortDesc,
		Long:  reelLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .reel/ directory location")

	// Add subcommands
	cmd.AddCommand(viewcmder.NewViewCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
