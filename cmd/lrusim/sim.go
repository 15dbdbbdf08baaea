package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/hashlink"
)

// simulator replays a key trace against a SyncLRU. Every miss is filled by
// a loader that derives the value from the key.
type simulator struct {
	cache *hashlink.SyncLRU[string, int]
	log   *zap.SugaredLogger
}

func newSimulator(capacity int, log *zap.SugaredLogger) *simulator {
	s := &simulator{log: log}
	s.cache = hashlink.NewSyncLRU(capacity, func(key string, value int) {
		log.Debugw("evicted", "key", key, "value", value)
	}, hashlink.WithCapacity(capacity))
	return s
}

// load is the cache fill.
func load(key string) func() (int, error) {
	return func() (int, error) {
		return len(key), nil
	}
}

// run reads one key per line from r, skipping blank lines and lines that
// start with '#', and requests each key from workers goroutines.
func (s *simulator) run(ctx context.Context, r io.Reader, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	keys := make(chan string, workers)

	g.Go(func() error {
		defer close(keys)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := strings.TrimSpace(sc.Text())
			if key == "" || strings.HasPrefix(key, "#") {
				continue
			}
			select {
			case keys <- key:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read trace: %w", err)
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			for key := range keys {
				if _, err := s.cache.GetOrLoadContext(ctx, key, load(key)); err != nil {
					return fmt.Errorf("get %q: %w", key, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// writeSnapshot stores the final cache contents as JSON at path.
func (s *simulator) writeSnapshot(path string) error {
	data, err := s.cache.Snapshot().MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
