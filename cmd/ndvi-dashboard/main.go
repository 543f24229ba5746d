package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/spf13/pflag"

	"github.com/forest-guardian/ndvi-dashboard/internal/cache"
	"github.com/forest-guardian/ndvi-dashboard/internal/charts"
	"github.com/forest-guardian/ndvi-dashboard/internal/dashboard"
	"github.com/forest-guardian/ndvi-dashboard/internal/logging"
	"github.com/forest-guardian/ndvi-dashboard/internal/metrics"
	"github.com/forest-guardian/ndvi-dashboard/internal/notification"
	"github.com/forest-guardian/ndvi-dashboard/internal/properties"
	"github.com/forest-guardian/ndvi-dashboard/internal/raster"
	"github.com/forest-guardian/ndvi-dashboard/internal/samples"
	"github.com/forest-guardian/ndvi-dashboard/internal/server"
	"github.com/forest-guardian/ndvi-dashboard/internal/ui"
)

func printBanner() {
	figure1 := figure.NewFigure("NDVI", "isometric1", true)
	figure2 := figure.NewFigure("Dashboard", "small", true)
	bannercolor.Green(figure1.String())
	bannercolor.Green(figure2.String())
	fmt.Println()
}

// fatal logs err, forwards it to the error webhook and exits.
func fatal(discord *notification.Discord, msg string, err error) {
	slog.Error(msg, "error", err)
	if sendErr := discord.SendError(fmt.Sprintf("NDVI Dashboard\n\n%s: %s", msg, err.Error())); sendErr != nil {
		slog.Warn("failed to send notification", "error", sendErr)
	}
	os.Exit(1)
}

func load(p *properties.Properties) (*dashboard.Dashboard, error) {
	w, bounds, err := raster.ReadWindow(p.Raster.Path, raster.WithMaxSize(p.Raster.MaxWindow))
	if err != nil {
		return nil, err
	}
	stats := w.Stats()
	metrics.ObserveWindow(stats.Valid, stats.Missing)
	slog.Info("raster window loaded",
		"path", p.Raster.Path,
		"rows", w.Rows,
		"cols", w.Cols,
		"valid", stats.Valid,
		"missing", stats.Missing,
	)

	points, err := samples.LoadOrDefault(p.Samples.Path, bounds.Center())
	if err != nil {
		return nil, err
	}
	for i, pt := range points {
		if !bounds.Contains(pt.Latitude, pt.Longitude) {
			slog.Warn("sample point outside raster bounds", "index", i, "lat", pt.Latitude, "lon", pt.Longitude)
		}
	}
	return dashboard.Build(w, bounds, points, dashboard.OptionsFromProperties(p))
}

// serve runs the web dashboard until SIGINT/SIGTERM or a listener error.
func serve(p *properties.Properties, d *dashboard.Dashboard, discord *notification.Discord) error {
	deps := &server.Dependencies{
		Dashboard: d,
		Sessions: dashboard.NewSessions(d, func(index int, bar charts.BarChart) {
			metrics.SelectionChanges.Inc()
			slog.Debug("selection changed", "index", index, "title", bar.Title)
		}),
		Store:      session.New(session.Config{Expiration: 24 * time.Hour}),
		Overlays:   cache.NewOverlayCache(p.Cache.Dir, p.Cache.MaxAge),
		RasterPath: p.Raster.Path,
		MaxWindow:  p.Raster.MaxWindow,
	}
	app := server.New(p, deps)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", p.Server.Port)
		slog.Info("web dashboard starting", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	if err := discord.SendSuccess(fmt.Sprintf("NDVI Dashboard\n\nServing %s on port %d", p.Raster.Path, p.Server.Port)); err != nil {
		slog.Warn("failed to send notification", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("web dashboard stopped")
	return nil
}

func main() {
	serveOnly := pflag.Bool("serve", false, "start the web dashboard without the menu")
	pflag.Int("port", 0, "web dashboard port (overrides server.port)")
	configFile := pflag.String("config", "", "path to a config file")
	pflag.Parse()

	p, err := properties.Load(*configFile, pflag.CommandLine)
	if err != nil {
		bannercolor.Red("%s", err.Error())
		os.Exit(1)
	}
	logging.Setup(p.Log.Level, p.Log.Format)

	discord := notification.NewDiscord(properties.DiscordErrorNotificationUrl(p))
	defer func() {
		if r := recover(); r != nil {
			fatal(discord, "panic", fmt.Errorf("%v\n\n%s", r, debug.Stack()))
		}
	}()

	if !*serveOnly {
		printBanner()
	}

	d, err := load(p)
	if err != nil {
		fatal(discord, "failed to load dashboard", err)
	}

	if *serveOnly {
		if err := serve(p, d, discord); err != nil {
			fatal(discord, "web dashboard failed", err)
		}
		return
	}

	ui.New(d, p.Output.Dir, func() error { return serve(p, d, discord) }).Run()
}
