package main

import "github.com/kartoza/kartoza-audio-norms/cmd"

// Version is set via ldflags during build
var version = "0.1.0-dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
