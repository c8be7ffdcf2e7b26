// evctl opens an EmailVision API session, optionally calls one REST
// method and prints its raw response, then closes the session.
//
// Credentials come from the config file, a .env file or the
// EMAILVISION_* environment variables; they are never taken from flags.
//
//	evctl --path member/getMemberByEmail/ --param email=someone@example.com
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ignite/emailvision/internal/config"
	"github.com/ignite/emailvision/internal/emailvision"
	"github.com/ignite/emailvision/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) (err error) {
	var (
		configPath string
		server     string
		api        string
		insecure   bool
		method     string
		path       string
		rawParams  []string
	)

	flagSet := pflag.NewFlagSet("evctl", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file")
	flagSet.StringVar(&server, "server", "", "API server host (overrides config)")
	flagSet.StringVar(&api, "api", "", "API namespace, e.g. apiccmd (overrides config)")
	flagSet.BoolVar(&insecure, "insecure", false, "use plain http instead of https")
	flagSet.StringVar(&method, "method", "get", "HTTP method for --path: get or post")
	flagSet.StringVar(&path, "path", "", "REST method path relative to services/rest/")
	flagSet.StringArrayVar(&rawParams, "param", nil, "call parameter as key=value (repeatable)")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())

	if server != "" {
		cfg.EmailVision.Server = server
	}
	if api != "" {
		cfg.EmailVision.API = api
	}
	clientCfg := cfg.EmailVision.ClientConfig()
	if insecure {
		clientCfg.Insecure = true
	}

	client, err := emailvision.New(ctx, clientCfg)
	if err != nil {
		return err
	}
	defer func() { err = client.Release(ctx, err) }()

	if path == "" {
		fmt.Fprintf(stdout, "session opened and closed against %s\n", client)
		return nil
	}

	body, err := client.Call(ctx, path, emailvision.Method(strings.ToLower(method)), params)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, body)
	return nil
}

// parseParams turns ["k=v", ...] into a map. Values may contain '='.
func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", kv)
		}
		params[k] = v
	}
	return params, nil
}
