package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famcal/internal/config"
	"famcal/internal/feed"
	appLog "famcal/internal/log"
	"famcal/internal/member"
	"famcal/internal/pipeline"
	"famcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(conf.LogLevel)

	// Fail fast on missing feed URL / secret before any network I/O.
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid configuration", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	location := resolveLocationOrLocal(conf.Timezone)

	appLog.Info("famcal starting",
		"listen", conf.Listen,
		"feed_url", feed.RedactURL(feed.NormalizeScheme(conf.FeedURL)),
		"timezone", location.String(),
		"refresh", conf.RefreshCron,
		"member_count", len(conf.Members),
		"once", flags.once,
	)

	client := feed.NewClient(conf.FeedURL, conf.FeedSecret)
	directory := member.NewDirectory(conf.Members)
	controller := pipeline.NewController(client.Fetch, directory, location)

	// Root context cancelled on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := controller.Refresh(ctx); err != nil {
			os.Exit(1)
		}
		snap := controller.Snapshot()
		appLog.Info("single refresh completed", "event_count", len(snap.Events))
		return
	}

	if err := controller.Start(ctx, conf.RefreshCron); err != nil {
		appLog.Error("failed to start refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	defer controller.Stop()

	server := web.NewServer(controller, directory, client, conf.FeedSecret)
	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
	appLog.Info("famcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/famcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh and exit")

	flag.Parse()

	return cfg
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
