// Command liveaudio is a live voice conversation client for the Gemini Live
// API with a local dashboard.
package main

import (
	"os"

	"github.com/teslashibe/go-liveaudio/cmd/liveaudio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
