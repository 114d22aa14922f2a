package main

import (
	"context"
	"fmt"
	"os"

	_ "rtunnel/cmd"
	"rtunnel/cmd/root"
	"rtunnel/internal/config"
	"rtunnel/internal/logger"
)

func main() {
	logger.InitLogger(config.Config.Log.Path, config.Config.Log.Level)

	err := root.RootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if root.HelpRequested {
		os.Exit(1)
	}
}
