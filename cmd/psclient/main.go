package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samvad-hq/predictive-service-client/internal/app"
	"github.com/samvad-hq/predictive-service-client/internal/config"
	"github.com/samvad-hq/predictive-service-client/internal/logger"
	flag "github.com/spf13/pflag"
)

const usage = `usage:
  psclient [flags] query <predictive-object> '<json>'
  psclient [flags] feedback <request-id> '<json>'

flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "psclient: %v\n", err)
		os.Exit(1)
	}
}

// run writes command results to stdout and logs to stderr.
func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("psclient", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "service config file with a [Service Info] section")
	timeout := fs.Duration("timeout", 0, "per-request timeout (overrides QUERY_TIMEOUT_MS)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 || fs.NArg() > 3 {
		fs.Usage()
		return fmt.Errorf("expected a command and its arguments")
	}

	cfg, err := config.LoadWithServiceFile(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *timeout > 0 {
		cfg.QueryTimeout = *timeout
	}

	log, err := logger.InitWriter(cfg, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("psclient starting", "client_config", map[string]any{
		"endpoint":            cfg.Endpoint,
		"service_config_file": cfg.ServiceConfigFile,
		"verify_certificate":  cfg.VerifyCertificate,
		"query_timeout":       cfg.QueryTimeout.String(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, log, stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize client", "error", err)
		return err
	}
	defer runner.Close()

	payload := ""
	if fs.NArg() == 3 {
		payload = fs.Arg(2)
	}

	start := time.Now()
	switch cmd := fs.Arg(0); cmd {
	case "query":
		err = runner.Query(ctx, fs.Arg(1), payload)
	case "feedback":
		err = runner.Feedback(ctx, fs.Arg(1), payload)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	logger.InfoObj("psclient finished", "elapsed_ms", time.Since(start).Milliseconds())
	return err
}
