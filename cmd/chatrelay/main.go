package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/config"
	"github.com/dmitrymomot/chatrelay/core/logger"
	"github.com/dmitrymomot/chatrelay/core/plugin"
	"github.com/dmitrymomot/chatrelay/core/server"
	"github.com/dmitrymomot/chatrelay/integration/metrics"
	"github.com/dmitrymomot/chatrelay/integration/youtube"
	"github.com/dmitrymomot/chatrelay/pkg/chatview"
)

// errViewerClosed ends the run when the user quits the terminal viewer.
var errViewerClosed = errors.New("viewer closed")

func main() {
	view := flag.Bool("view", false, "show incoming chat in a terminal viewer")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error
	cfg.ViewerEnabled = cfg.ViewerEnabled || *view

	logOpts := []logger.Option{logger.WithAttr(slog.String("service", cfg.AppName))}
	if cfg.ViewerEnabled {
		logOpts = append(logOpts, logger.WithWriter(io.Discard))
	}
	log, logFile, err := logger.NewFromConfig(cfg.Log, logOpts...)
	if err != nil {
		logger.New().Error("Failed to create logger", logger.Error(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Application failed", logger.Error(err))
		_ = logFile.Close()
		os.Exit(1)
	}

	log.Info("Application stopped")
	_ = logFile.Close()
}

// run wires the broker, the plugin host, the HTTP server and the optional viewer,
// and blocks until ctx is done or one of them fails.
//
// Shutdown runs in a fixed order: plugins are unloaded, then the HTTP server
// stops, then the broker closes and ends any chat stream still open.
func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	broker := chat.New(chat.WithLogger(log))
	defer func() {
		if err := broker.Close(); err != nil {
			log.Error("Failed to close broker", logger.Component("chat"), logger.Error(err))
		}
	}()

	host := plugin.NewHost(broker, plugin.WithLogger(log), plugin.WithConfig(cfg.Plugin))
	unloadPlugins := func() {
		unloadCtx, cancel := context.WithTimeout(context.Background(), cfg.Plugin.DeactivateTimeout+time.Second)
		defer cancel()
		if err := host.Close(unloadCtx); err != nil {
			log.Error("Failed to unload plugins", logger.Component("plugin"), logger.Error(err))
		}
	}

	if cfg.YouTube.Enabled() {
		client, err := youtube.NewClient(ctx, cfg.YouTube)
		if err != nil {
			log.Error("Failed to create YouTube client", logger.Component("youtube"), logger.Error(err))
			return err
		}
		if err := host.Load(ctx, youtube.New(cfg.YouTube, client)); err != nil {
			unloadPlugins()
			return err
		}
	} else {
		log.Warn("YouTube provider disabled, YOUTUBE_CHANNELS is empty", logger.Component("youtube"))
	}

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		log.Error("Failed to create server", logger.Component("server"), logger.Error(err))
		unloadPlugins()
		return err
	}
	router := server.NewRouter(broker, append(cfg.Server.RouteOptions(),
		server.WithRouteLogger(log),
		server.WithMetrics(metrics.NewRegistry(broker)),
	)...)

	var viewerSub *chat.Subscription
	if cfg.ViewerEnabled {
		viewerSub, err = broker.Subscribe(cfg.ViewerProvider, cfg.ViewerChannel)
		if err != nil {
			unloadPlugins()
			return err
		}
	}

	eg, ctx := errgroup.WithContext(ctx)

	// The server gets its own context so it outlives the plugins during shutdown.
	srvCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()
	eg.Go(srv.Run(srvCtx, router))
	eg.Go(func() error {
		<-ctx.Done()
		unloadPlugins()
		stopServer()
		return nil
	})

	if viewerSub != nil {
		eg.Go(func() error {
			err := chatview.RunViewer(ctx, viewerSub,
				chatview.WithTitle(cfg.AppName),
				chatview.WithHistory(cfg.ViewerHistory),
			)
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			return errViewerClosed
		})
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, errViewerClosed) {
		return err
	}
	return nil
}
