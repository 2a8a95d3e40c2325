// Command accord searches agreements ingested from files and DocuSign.
package main

import (
	"os"

	"github.com/custodia-labs/accord/internal/adapters/driven/config/file"
	"github.com/custodia-labs/accord/internal/adapters/driving/cli"
	"github.com/custodia-labs/accord/internal/config"
	"github.com/custodia-labs/accord/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotEnv(); err != nil {
		logger.Error("load .env: %v", err)
		return 1
	}

	store, err := file.NewConfigStore(os.Getenv("ACCORD_HOME"))
	if err != nil {
		logger.Error("open config: %v", err)
		return 1
	}

	cfg, err := config.Load(store, os.Getenv)
	if err != nil {
		logger.Error("load config: %v", err)
		return 1
	}

	rt := newRuntime(cfg)
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	cli.SetRuntime(rt)
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
