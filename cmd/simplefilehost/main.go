package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"simplefilehost/internal/adapters/archive/zip"
	"simplefilehost/internal/adapters/display/qr"
	"simplefilehost/internal/adapters/eventbroker/nats"
	"simplefilehost/internal/adapters/eventsink"
	"simplefilehost/internal/adapters/handlers/http/chi"
	sessionapi "simplefilehost/internal/adapters/handlers/http/chi/v1/session"
	"simplefilehost/internal/adapters/metrics/prometheus"
	"simplefilehost/internal/adapters/mimetype"
	"simplefilehost/internal/adapters/token"
	"simplefilehost/internal/adapters/transport/tcp"
	"simplefilehost/internal/config"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"simplefilehost/internal/core/service/cleanup"
	"simplefilehost/internal/core/service/session"
	"simplefilehost/internal/core/service/shell"
	"sync"
	"syscall"
	"time"
)

const (
	exitOK         = 0
	exitError      = 1
	exitInvalidArg = 2
	exitNetwork    = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitError
	}

	command, err := parseFlags(cfg, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		// the flag set already reported its own parse errors
		if errors.Is(err, domain.ErrInvalidArgument) {
			fmt.Fprintln(os.Stderr, err)
		}
		return exitInvalidArg
	}

	level := slog.LevelInfo
	if cfg.Log.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	workDir, err := os.Getwd()
	if err != nil {
		logger.Error("failed to resolve working directory", "error", err)
		return exitError
	}

	// sinks
	metrics := prometheus.NewSink()
	sinks := []port.EventSink{eventsink.NewLogSink(logger), metrics}
	if cfg.NATS.URL != "" {
		publisher, err := nats.NewNATSPublisher(ctx, cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to init nats", "error", err)
			return exitError
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("failed to close nats", "error", err)
			}
		}()
		sinks = append(sinks, publisher)
	}
	sink := eventsink.NewFanout(sinks...)

	tokens := token.NewGenerator()
	factory := tcp.NewFactory(mimetype.NewResolver(), tokens, sink, logger)
	runner := session.NewRunner(factory, sink, qr.NewDisplay(os.Stdout, logger), cleanup.NewCleanupService(logger), logger)

	var wg sync.WaitGroup
	var status *http.Server
	if cfg.Status.Addr != "" {
		router := chi.NewRouter(logger, sessionapi.NewSessionHandlerV1(runner, logger), metrics.Handler(), cfg.Env.Env)
		status = &http.Server{
			Addr:              cfg.Status.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("starting status server", "addr", cfg.Status.Addr)
			if err := status.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("failed to start status server", "error", err)
			}
		}()
	}

	// Ctrl-C cancels the running session, SIGTERM the whole process
	interrupts := make(chan struct{}, 1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			select {
			case interrupts <- struct{}{}:
			default:
			}
		}
	}()

	sh := shell.NewShell(runner, zip.NewArchiver(), tokens, shell.Defaults{
		BindAddress:   cfg.Server.BindHost(),
		Port:          cfg.Server.Port,
		MaxSize:       int64(cfg.Server.MaxSize),
		SocketTimeout: cfg.Server.SocketTimeout,
		PollInterval:  cfg.Server.PollInterval,
		TLS: domain.TLSConfig{
			CertFile: cfg.TLS.CertFile,
			KeyFile:  cfg.TLS.KeyFile,
		},
	}, workDir, logger)

	code := exitOK
	if len(command) > 0 {
		if _, err := sh.Exec(ctx, command, os.Stdout, interrupts); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			code = exitCode(err)
		}
	} else if err := sh.Run(ctx, os.Stdin, os.Stdout, interrupts); err != nil {
		logger.Error("shell stopped", "error", err)
		code = exitError
	}

	if status != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := status.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown status server", "error", err)
		}
	}
	wg.Wait()
	return code
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownCommand):
		return exitInvalidArg
	case errors.Is(err, domain.ErrStartup):
		return exitNetwork
	default:
		return exitError
	}
}

// parseFlags applies command line flags over cfg and returns the remaining
// arguments as a one-shot shell command.
func parseFlags(cfg *config.Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("simplefilehost", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: simplefilehost [flags] [send <file> | senddir <dir> | get [output] | zip <target>]")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.Server.Bind, "bind", cfg.Server.Bind, "address to bind")
	fs.BoolVar(&cfg.Server.AutoBind, "auto-bind", cfg.Server.AutoBind, "bind every interface unless --bind is given")
	fs.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "port to listen on, 0 picks a free one")
	fs.Var(&cfg.Server.MaxSize, "max-size", "upload size cap, e.g. 200mb")
	fs.DurationVar(&cfg.Server.SocketTimeout, "timeout", cfg.Server.SocketTimeout, "socket inactivity timeout")
	fs.StringVar(&cfg.Status.Addr, "status", cfg.Status.Addr, "address of the status API, empty disables it")
	fs.BoolVar(&cfg.Log.Verbose, "verbose", cfg.Log.Verbose, "debug logging")
	fs.StringVar(&cfg.TLS.CertFile, "tls-cert", cfg.TLS.CertFile, "tls certificate file")
	fs.StringVar(&cfg.TLS.KeyFile, "tls-key", cfg.TLS.KeyFile, "tls key file")

	args, err := expandTLS(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "bind" {
			cfg.Server.AutoBind = false
		}
	})
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return nil, fmt.Errorf("%w: tls needs both a certificate and a key", domain.ErrInvalidArgument)
	}
	return fs.Args(), nil
}

// expandTLS rewrites "--tls <cert> <key>" into the two single-value flags
func expandTLS(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			return append(out, args[i:]...), nil
		}
		if args[i] != "--tls" && args[i] != "-tls" {
			out = append(out, args[i])
			continue
		}
		if i+2 >= len(args) {
			return nil, fmt.Errorf("%w: usage: --tls <cert> <key>", domain.ErrInvalidArgument)
		}
		out = append(out, "--tls-cert="+args[i+1], "--tls-key="+args[i+2])
		i += 2
	}
	return out, nil
}
