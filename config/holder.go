// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/movesion/cardsim/domain/plan"
)

// PlanHolder provides thread-safe access to the pricing plan with hot reload
// support. It satisfies ports.PlanProvider.
type PlanHolder struct {
	mu       sync.RWMutex
	plan     plan.Plan
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(plan.Plan)
	onError  []func(error)
	stopCh   chan struct{}
}

// NewPlanHolder creates a holder and loads the initial pricing plan.
func NewPlanHolder(path string, logger zerolog.Logger) (*PlanHolder, error) {
	p, err := LoadPlan(path)
	if err != nil {
		return nil, fmt.Errorf("load pricing plan: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	h := &PlanHolder{
		plan:   p,
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	return h, nil
}

// Plan returns the current pricing plan (thread-safe).
func (h *PlanHolder) Plan() plan.Plan {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.plan
}

// Reload reloads the pricing plan from disk.
// Returns error if loading fails (keeps old plan).
func (h *PlanHolder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading pricing plan")

	newPlan, err := LoadPlan(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("plan reload failed, keeping old plan")
		for _, fn := range h.onError {
			fn(err)
		}
		return fmt.Errorf("reload pricing plan: %w", err)
	}

	h.mu.Lock()
	oldPlan := h.plan
	h.plan = newPlan
	h.mu.Unlock()

	// Log what changed
	h.logChanges(oldPlan, newPlan)

	// Notify listeners
	for _, fn := range h.onChange {
		fn(newPlan)
	}

	h.logger.Info().Msg("pricing plan reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when the plan changes.
func (h *PlanHolder) OnChange(fn func(plan.Plan)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnReloadError registers a callback to be called when a reload fails.
func (h *PlanHolder) OnReloadError(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// WatchFile starts watching the plan file for changes.
// Changes trigger automatic reload.
func (h *PlanHolder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory (more reliable for editors that do atomic saves)
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching pricing plan for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *PlanHolder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading pricing plan")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload pricing plan")
}

// Stop stops watching for file changes and signals.
func (h *PlanHolder) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *PlanHolder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			// Only react to our plan file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("pricing plan file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *PlanHolder) logChanges(old, new plan.Plan) {
	if old.ID != new.ID {
		h.logger.Info().
			Str("old", old.ID).
			Str("new", new.ID).
			Msg("pricing plan id changed")
	}

	if len(old.TieredMonthly) != len(new.TieredMonthly) {
		h.logger.Info().
			Int("old", len(old.TieredMonthly)).
			Int("new", len(new.TieredMonthly)).
			Msg("tiered schedule count changed")
	}

	if len(old.EventFees) != len(new.EventFees) {
		h.logger.Info().
			Int("old", len(old.EventFees)).
			Int("new", len(new.EventFees)).
			Msg("event fee count changed")
	}

	if len(old.OptionalFeatures) != len(new.OptionalFeatures) {
		h.logger.Info().
			Int("old", len(old.OptionalFeatures)).
			Int("new", len(new.OptionalFeatures)).
			Msg("optional feature count changed")
	}
}
