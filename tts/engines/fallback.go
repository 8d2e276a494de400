package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/tts"
)

// Fallback wraps a primary engine and switches to a secondary engine once
// the primary has failed maxFailures times in a row or reports itself
// unavailable.
type Fallback struct {
	primary     tts.Engine
	fallback    tts.Engine
	maxFailures int
	logger      *log.Logger

	mu            sync.Mutex
	failures      int
	usingFallback bool

	changed chan struct{}
	done    chan struct{}
	once    sync.Once
}

var (
	_ tts.Engine        = (*Fallback)(nil)
	_ tts.VoiceNotifier = (*Fallback)(nil)
)

// NewFallback creates a Fallback. A maxFailures below one is treated as one.
func NewFallback(primary, fallback tts.Engine, maxFailures int, logger *log.Logger) *Fallback {
	if maxFailures < 1 {
		maxFailures = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	f := &Fallback{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
		logger:      logger,
		changed:     make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	if !primary.IsAvailable() && fallback.IsAvailable() {
		f.usingFallback = true
		logger.Warn("primary engine not available, using fallback")
	}

	for _, e := range []tts.Engine{primary, fallback} {
		if n, ok := e.(tts.VoiceNotifier); ok {
			go f.forward(e, n.VoicesChanged())
		}
	}
	return f
}

// forward relays voice changes of e while e is the active engine.
func (f *Fallback) forward(e tts.Engine, ch <-chan struct{}) {
	for {
		select {
		case <-f.done:
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if f.active() == e {
				f.notify()
			}
		}
	}
}

func (f *Fallback) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

func (f *Fallback) active() tts.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return f.fallback
	}
	return f.primary
}

// Synthesize uses the active engine. A primary failure that reaches the
// limit is retried on the fallback engine.
func (f *Fallback) Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
	engine := f.active()
	audio, err := engine.Synthesize(ctx, req)
	if engine == f.fallback || ctx.Err() != nil {
		return audio, err
	}

	f.mu.Lock()
	if err == nil {
		if f.failures > 0 {
			f.logger.Info("primary engine recovered", "failures", f.failures)
		}
		f.failures = 0
		f.mu.Unlock()
		return audio, nil
	}
	f.failures++
	f.logger.Warn("primary engine failed", "attempt", f.failures, "max", f.maxFailures, "err", err)
	switched := false
	if f.failures >= f.maxFailures && !f.usingFallback {
		f.usingFallback = true
		switched = true
	}
	f.mu.Unlock()

	if !switched {
		return nil, err
	}
	f.logger.Warn("switching to fallback engine", "failures", f.maxFailures)
	f.notify()

	audio, ferr := f.fallback.Synthesize(ctx, req)
	if ferr != nil {
		return nil, fmt.Errorf("fallback engine: %w", errors.Join(ferr, err))
	}
	return audio, nil
}

// Voices returns the voices of the active engine.
func (f *Fallback) Voices() []tts.Voice { return f.active().Voices() }

// VoicesChanged signals when the active engine's voices change or the
// engines are switched.
func (f *Fallback) VoicesChanged() <-chan struct{} { return f.changed }

// IsAvailable reports whether either engine can synthesize.
func (f *Fallback) IsAvailable() bool {
	return f.primary.IsAvailable() || f.fallback.IsAvailable()
}

// UsingFallback reports whether the fallback engine is active.
func (f *Fallback) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Reset returns to the primary engine.
func (f *Fallback) Reset() {
	f.mu.Lock()
	was := f.usingFallback
	f.failures = 0
	f.usingFallback = false
	f.mu.Unlock()

	if was {
		f.logger.Info("reset to primary engine")
		f.notify()
	}
}

// Status describes which engine is in use.
func (f *Fallback) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return fmt.Sprintf("using fallback engine (primary failed %d times)", f.failures)
	}
	return fmt.Sprintf("using primary engine (failures: %d/%d)", f.failures, f.maxFailures)
}

// Shutdown stops both engines.
func (f *Fallback) Shutdown() error {
	f.once.Do(func() { close(f.done) })
	var errs []error
	if err := f.primary.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("primary shutdown: %w", err))
	}
	if err := f.fallback.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("fallback shutdown: %w", err))
	}
	return errors.Join(errs...)
}
