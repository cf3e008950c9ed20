// Package servecmder provides the serve command for running the API server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spoolworks/reel/api"
	"github.com/spoolworks/reel/api/mcp"
	"github.com/spoolworks/reel/pkg/config"
	"github.com/spoolworks/reel/pkg/forge"
	"github.com/spoolworks/reel/pkg/logger"
)

type ServeCommander struct {
	listen   string
	token    string
	forgeURL string
	debug    bool
	viper    *viper.Viper
	logger   *zap.Logger
}

const serveLongDesc string = `Run the Reel API server.

Serves run details and rendered artifact views over HTTP, and exposes
the MCP endpoint at /mcp for agent tooling.

Configuration follows the usual precedence: flags, then REEL_* environment
variables, then config.toml, then defaults. For example the forge token can
come from --token, REEL_FORGE_TOKEN, or "reel config set forge.token ...".`

const serveShortDesc string = "Run the Reel API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagAPIListen,
				config.FlagForgeToken,
				config.FlagForgeBaseURL,
			})
			cmder.viper = v

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagForgeToken, &cmder.token)
	config.AddStringFlag(cmd, config.Flags, config.FlagForgeBaseURL, &cmder.forgeURL)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	listen := c.viper.GetString("api.listen")
	token := c.viper.GetString("forge.token")
	forgeURL := c.viper.GetString("forge.base_url")

	client := forge.NewGitHubClient(forge.GitHubConfig{
		BaseURL: forgeURL,
		Token:   token,
		Logger:  c.logger,
	})

	mcpServer, err := mcp.NewServer(mcp.Config{
		Forge:  client,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiConfig := api.Config{
		ListenAddr: listen,
	}
	apiServer := api.NewServer(apiConfig, client, mcpServer.Handler(), c.logger)

	c.logger.Info("starting api server",
		zap.String("api_addr", listen),
		zap.String("forge_url", forgeURL),
		zap.Bool("authenticated", token != ""),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}
