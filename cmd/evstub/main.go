// evstub serves a fake EmailVision REST API for local development. It
// accepts one account, issues session tokens and answers any other REST
// method with a canned result once the token checks out.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ignite/emailvision/internal/config"
	"github.com/ignite/emailvision/internal/emailvision/evtest"
	"github.com/ignite/emailvision/internal/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath, addr, api string
	var creds evtest.Credentials

	flagSet := pflag.NewFlagSet("evstub", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file")
	flagSet.StringVar(&addr, "addr", "", "listen address (default from config, :8089)")
	flagSet.StringVar(&api, "api", "", "API namespace to serve (default from config, apiccmd)")
	flagSet.StringVar(&creds.Login, "login", "", "accepted login (default from config)")
	flagSet.StringVar(&creds.Password, "password", "", "accepted password (default from config)")
	flagSet.StringVar(&creds.Key, "key", "", "accepted API key (default from config)")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	if addr == "" {
		addr = cfg.Stub.Addr
	}
	if api == "" {
		api = cfg.EmailVision.API
	}
	if creds.Login == "" {
		creds.Login = cfg.EmailVision.Login
	}
	if creds.Password == "" {
		creds.Password = cfg.EmailVision.Password
	}
	if creds.Key == "" {
		creds.Key = cfg.EmailVision.APIKey
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      evtest.NewServer(api, creds),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fake EmailVision API listening", "addr", addr, "base", fmt.Sprintf("http://%s/%s/services/rest/", addr, api))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down fake EmailVision API")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
