// Command botfleetd runs the bot fleet daemon: a registry of bots, each
// executing queued HTTP activities in order, controlled over an HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"botfleet/internal/config"
	"botfleet/internal/core"
	"botfleet/internal/events"
	"botfleet/internal/executor"
	"botfleet/internal/progress"
	"botfleet/internal/registry"
	"botfleet/internal/webserver"
)

const (
	ExitSuccess = 0
	ExitError   = 2

	shutdownWait = 60 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "control API listen address (overrides config)")
	quiet := flag.Bool("quiet", false, "suppress periodic fleet status output")
	verbose := flag.Bool("verbose", false, "enable debug output (request/response logging)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	exec := executor.NewHTTP(cfg.Fleet.ExecutorTimeout)
	if *verbose {
		exec.Debug = executor.NewDebugLogger(os.Stderr)
	}

	mem := events.NewMemory()
	recorder, cleanup, err := buildRecorder(cfg, mem)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	defer cleanup()

	reg := registry.New(exec, recorder, cfg.Policy())

	if err := startConfiguredBots(reg, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	webserver.Attach(engine, reg, mem)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: engine}

	prog := progress.New(mem, *quiet)
	prog.Printf("botfleetd listening on %s (%d bots)", cfg.Server.Addr, len(reg.ListBots()))
	prog.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		prog.Printf("received %v, shutting down", sig)
	case err := <-errCh:
		prog.Stop()
		log.Fatalf("control API server: %v", err)
	}

	prog.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("control API shutdown: %v", err)
	}
	if err := reg.Shutdown(ctx); err != nil {
		log.Printf("fleet shutdown: %v", err)
	}
	mem.Close()

	os.Exit(ExitSuccess)
}

// buildRecorder assembles the event sink stack: the in-memory recorder is
// always attached (it backs fleet stats), the rest per config.
func buildRecorder(cfg *config.Config, mem *events.Memory) (core.Recorder, func(), error) {
	sinks := events.Multi{mem}
	var closers []func()

	if cfg.Events.Log {
		sinks = append(sinks, events.NewLog(os.Stdout))
	}
	if cfg.Events.RedisURL != "" {
		rs, err := events.NewRedisStream(cfg.Events.RedisURL, cfg.Events.RedisStream)
		if err != nil {
			return nil, nil, fmt.Errorf("redis recorder: %w", err)
		}
		sinks = append(sinks, rs)
		closers = append(closers, func() { rs.Close() })
	}
	if len(cfg.Events.KafkaBrokers) > 0 && cfg.Events.KafkaTopic != "" {
		k := events.NewKafka(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		sinks = append(sinks, k)
		closers = append(closers, func() { k.Close() })
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return sinks, cleanup, nil
}

// startConfiguredBots creates a bot per account in the inline roster and the
// roster file, if any.
func startConfiguredBots(reg *registry.Registry, cfg *config.Config) error {
	specs := make([]core.AccountSpec, 0, len(cfg.Accounts))
	for _, entry := range cfg.Accounts {
		spec, err := entry.Spec()
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	if cfg.AccountsFile != "" {
		fromFile, err := config.LoadAccounts(cfg.AccountsFile)
		if err != nil {
			return err
		}
		specs = append(specs, fromFile...)
	}

	for _, spec := range specs {
		if _, err := reg.AddBot(spec); err != nil {
			return fmt.Errorf("starting bot for account %q: %w", spec.Name, err)
		}
	}
	return nil
}
