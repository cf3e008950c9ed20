// Package authcmder provides the auth command for storing the forge token.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spoolworks/reel/pkg/cliui"
	"github.com/spoolworks/reel/pkg/config"
)

const authLongDesc string = `Store the forge API token.

The token is stored as forge.token in config.toml in the .reel/
directory and used for authenticated run and artifact fetches.
Unauthenticated requests work for public repositories but run into
low rate limits quickly.

Examples:
  reel auth                   Prompt for the token with hidden input
  reel auth --remove          Remove the stored token
  echo $TOKEN | reel auth     Pipe the token from stdin`

const authShortDesc string = "Store the forge API token"

func NewAuthCmd() *cobra.Command {
	var removeFlag bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			if removeFlag {
				return runRemove(configDir)
			}
			return runAuth(configDir)
		},
	}

	cmd.Flags().BoolVar(&removeFlag, "remove", false, "Remove the stored token")

	return cmd
}

func runAuth(configDir string) error {
	token, err := readToken()
	if err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SetConfigValue("forge.token", token); err != nil {
		return err
	}

	fmt.Printf("\n  %s Stored forge token %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render("(also settable via REEL_FORGE_TOKEN)"),
	)

	return nil
}

func runRemove(configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SetConfigValue("forge.token", ""); err != nil {
		return err
	}

	fmt.Printf("\n  %s Removed forge token.\n\n", cliui.SuccessMark)

	return nil
}

// readToken reads the token from stdin. If stdin is a pipe, it reads the
// first line. Otherwise, it prompts interactively with hidden input.
func readToken() (string, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// Piped input
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", errors.New("no input received on stdin")
	}

	// Interactive terminal
	fmt.Print("Enter forge API token: ")

	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return string(tokenBytes), nil
}
