// Command lrusim replays a key trace through a hashlink LRU cache and
// reports hit, miss and eviction statistics.
//
// Usage:
//
//	lrusim -config lrusim.yaml
//	LRUSIM_SIM__TRACE=keys.txt LRUSIM_CACHE__CAPACITY=100 lrusim
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	lruprom "github.com/llxisdsh/hashlink/adapters/prometheus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "lrusim:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trace, err := os.Open(cfg.Sim.Trace)
	if err != nil {
		return err
	}
	defer trace.Close()

	sim := newSimulator(cfg.Cache.Capacity, log)
	reg := prometheus.NewRegistry()
	lruprom.MustRegister(reg, cfg.Sim.Name, sim.cache)

	log.Infow("replay started",
		"trace", cfg.Sim.Trace,
		"capacity", cfg.Cache.Capacity,
		"workers", cfg.Sim.Workers,
	)
	if err := sim.run(ctx, trace, cfg.Sim.Workers); err != nil {
		log.Errorw("replay failed", "err", err)
		return err
	}

	if err := report(log, reg); err != nil {
		return err
	}
	if cfg.Sim.Snapshot != "" {
		if err := sim.writeSnapshot(cfg.Sim.Snapshot); err != nil {
			return err
		}
		log.Infow("snapshot written", "file", cfg.Sim.Snapshot)
	}
	return nil
}

// report logs every gathered metric as one structured line.
func report(log *zap.SugaredLogger, reg prometheus.Gatherer) error {
	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fields := make([]any, 0, 2*len(mfs))
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			v := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				v = c.GetValue()
			}
			fields = append(fields, mf.GetName(), v)
		}
	}
	log.Infow("replay finished", fields...)
	return nil
}
