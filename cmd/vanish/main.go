// Command vanish hosts the invisibility controller over an ECS world and
// plays a short scripted match against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlange-42/ark-tools/app"

	"vanish/internal/chat"
	"vanish/internal/controller"
	"vanish/internal/events"
	"vanish/internal/loader/loader"
	"vanish/internal/loader/schema"
	"vanish/internal/logger"
	"vanish/internal/render"
	"vanish/internal/scheduler"
	"vanish/internal/world"
)

type options struct {
	configPath string
	debug      bool
	tps        float64
	sweep      time.Duration
	script     bool
}

func parseOptions() options {
	var o options
	configDefault := os.Getenv("VANISH_CONFIG")
	if configDefault == "" {
		configDefault = "vanish.yaml"
	}
	flag.StringVar(&o.configPath, "config", configDefault, "path to the YAML config")
	flag.BoolVar(&o.debug, "debug", os.Getenv("VANISH_DEBUG") == "true", "debug logging")
	flag.Float64Var(&o.tps, "tps", 20, "world ticks per second")
	flag.DurationVar(&o.sweep, "sweep", 30*time.Second, "interval between cooldown sweeps")
	flag.BoolVar(&o.script, "script", true, "play the scripted match and exit when it ends")
	flag.Parse()
	if o.tps <= 0 {
		o.tps = 20
	}
	return o
}

func main() {
	opts := parseOptions()

	log, err := newLogger(opts.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(opts, log); err != nil {
		log.Error("vanish stopped with error", logger.F("error", err))
		os.Exit(1)
	}
}

func newLogger(debug bool) (logger.Logger, error) {
	if !debug {
		return logger.NewLoggerFromEnv()
	}
	cfg, err := logger.ConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}
	cfg.Level = "debug"
	cfg.EnableSampling = false
	return logger.NewZapLogger(cfg)
}

func run(opts options, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgLoader := loader.NewYamlLoader(opts.configPath)
	if err := cfgLoader.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := cfgLoader.Config()
	log.Info("config loaded",
		logger.F("file", opts.configPath),
		logger.F("duration", cfg.Invisibility()),
		logger.F("cooldown", cfg.Cooldown()),
		logger.F("triggers", len(cfg.TriggerWeapons)))

	sink, err := chat.NewAsyncSink(chat.NewLogSink(log), 32, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(time.Second); err != nil {
			log.Warn("chat pool did not drain", logger.F("error", err))
		}
	}()

	tool := app.New(1024).Seed(123)
	tool.TPS = opts.tps

	host := world.New(&tool.World, sink, log)
	loop := events.NewLoop(log, 256)
	clock := scheduler.SystemClock{}
	sched := scheduler.New(clock, loop.Dispatch, log)
	defer sched.Stop()
	engine := render.NewEngine(host, host, cfg, log)
	ctrl := controller.New(cfg, host, engine, host, clock, sched, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher, err := loader.NewWatcher(cfgLoader, log)
	if err != nil {
		log.Warn("config hot reload disabled", logger.F("error", err))
	} else {
		go watcher.Run(ctx, func(cfg schema.Config) {
			if err := loop.Post(events.ConfigReloaded{Config: cfg}); err != nil {
				log.Warn("config reload not applied", logger.F("error", err))
			}
		})
	}

	if opts.script {
		tool.AddSystem(&MatchSystem{
			Host:  host,
			Post:  loop.Post,
			Clock: clock,
			Steps: defaultScript(),
			Done:  cancel,
			Log:   log,
		})
	}
	tool.AddSystem(&SweepSystem{
		Controller: ctrl,
		Clock:      clock,
		Interval:   opts.sweep,
	})

	if err := loop.Dispatch(tool.Initialize); err != nil {
		return err
	}
	go tick(ctx, loop, tool, log)

	log.Info("vanish running", logger.F("tps", opts.tps), logger.F("script", opts.script))
	err = loop.Run(ctx, ctrl)

	// The loop is gone; finish the world on this goroutine.
	tool.Finalize()
	logStats(log, ctrl, loop, sink)

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// tick posts one world update per frame onto the loop so systems share the
// loop's goroutine with every event handler.
func tick(ctx context.Context, loop *events.Loop, tool *app.App, log logger.Logger) {
	ticker := time.NewTicker(time.Second / time.Duration(tool.TPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if loop.Pending() > 0 {
				// Previous frames have not drained; skip rather than pile up.
				continue
			}
			if err := loop.Dispatch(func() { tool.Update() }); err != nil {
				log.Debug("tick stopped", logger.F("error", err))
				return
			}
		}
	}
}

func logStats(log logger.Logger, ctrl *controller.Controller, loop *events.Loop, sink *chat.AsyncSink) {
	s := ctrl.Stats()
	agg := loop.Metrics().Aggregate()
	log.Info("final stats",
		logger.F("spawns", s.Spawns),
		logger.F("triggers", s.Triggers),
		logger.F("rejected", s.Rejected),
		logger.F("ignored", s.Ignored),
		logger.F("reverts", s.Reverts),
		logger.F("abandoned", s.Abandoned),
		logger.F("disconnects", s.Disconnects),
		logger.F("reloads", s.Reloads),
		logger.F("reverts_replaced", s.Scheduler.Replaced),
		logger.F("reverts_stale", s.Scheduler.Stale),
		logger.F("events", agg.TotalDeliveries),
		logger.F("faults", agg.TotalFaults),
		logger.F("avg_handle", agg.AvgHandleDuration),
		logger.F("chat_delivered", sink.Delivered()),
		logger.F("chat_dropped", sink.Dropped()))
}
