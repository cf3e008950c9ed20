package main

import (
	"os"

	reelcmder "github.com/spoolworks/reel/cmd/reel"
)

func main() {
	cmd := reelcmder.NewReelCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
