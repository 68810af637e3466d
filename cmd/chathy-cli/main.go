package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/walter2161/grupo-de-agentes/internal/app"
	"github.com/walter2161/grupo-de-agentes/internal/config"
	"github.com/walter2161/grupo-de-agentes/internal/identity"
)

var (
	configPath = flag.String("config", os.Getenv("CONFIG_PATH"), "Path to config file")
	memoryOnly = flag.Bool("memory", false, "Keep data in memory only")
	debug      = flag.Bool("debug", false, "Print debug logs")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// CLI 默认持久化到 sqlite，日志只在 -debug 时输出，避免打断对话
	if *memoryOnly {
		cfg.Storage.Local = "memory"
	} else if cfg.Storage.Local == "memory" {
		cfg.Storage.Local = "sqlite"
	}
	cfg.App.Debug = *debug
	var logOut io.Writer = io.Discard
	if *debug {
		logOut = os.Stderr
	}
	app.SetupLogger(cfg, logOut)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var store identity.SessionStore = &identity.MemorySessionStore{}
	if !*memoryOnly {
		store = identity.NewFileSessionStore(cfg.Session.TokenFile)
	}
	a, err := app.New(ctx, cfg, app.Options{SessionStore: store})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	runErr := NewREPL(a, os.Stdin, os.Stdout).Run(ctx)
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
