package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/NordCoder/authgate/internal/authctl"
	"github.com/NordCoder/authgate/internal/obs"
)

func main() {
	server := flag.String("server", envOr("AUTHCTL_SERVER", "http://localhost:5500"), "auth-api base URL")
	cookies := flag.String("cookies", authctl.DefaultCookiePath(), "session cookie file")
	verbose := flag.Bool("v", false, "debug logging to stderr")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), authctl.ErrUsage)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := obs.NewLogger(obs.LogConfig{Level: level, Pretty: true, App: "authctl"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := authctl.New(authctl.Config{Server: *server, CookiePath: *cookies, Logger: logger}, os.Stdin, os.Stdout)
	if err != nil {
		logger.Error("init", zap.Error(err))
		os.Exit(1)
	}
	if err := app.Run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
