// Package piper provides the Piper TTS engine integration.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/tingshu/tts"
	"golang.org/x/time/rate"
)

// Config holds the settings of the piper engine.
type Config struct {
	Binary     string        // piper executable name or path
	VoicesDir  string        // directory of *.onnx models with .onnx.json configs
	SampleRate int           // used when a model config has no sample rate
	SpeakerID  int           // speaker for multi-speaker models, -1 for the default
	Timeout    time.Duration // limit for a single synthesis
}

// ConfigFrom converts the application configuration.
func ConfigFrom(c tts.PiperConfig) Config {
	return Config{
		Binary:     c.Binary,
		VoicesDir:  c.VoicesDir,
		SampleRate: c.SampleRate,
		SpeakerID:  c.SpeakerID,
		Timeout:    c.Timeout,
	}
}

// Engine runs a fresh piper process for every utterance.
type Engine struct {
	config Config
	logger *log.Logger

	mu      sync.RWMutex
	models  []model
	closed  bool
	changed chan struct{}

	// rescans coalesces bursts of file events.
	rescans *rate.Limiter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates a piper engine and scans its voices directory. A missing
// directory leaves the engine without voices.
func New(config Config, opts ...Option) *Engine {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	e := &Engine{
		config:  config,
		logger:  log.Default(),
		changed: make(chan struct{}, 1),
		rescans: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(e)
	}

	models, err := scanVoices(config.VoicesDir, config.SampleRate)
	if err != nil {
		e.logger.Warn("piper voices unavailable", "dir", config.VoicesDir, "err", err)
	}
	e.models = models
	return e
}

// Rescan reloads the voices directory and signals VoicesChanged when the
// list differs.
func (e *Engine) Rescan() error {
	models, err := scanVoices(e.config.VoicesDir, e.config.SampleRate)
	if err != nil {
		return err
	}

	e.mu.Lock()
	changed := !sameModels(e.models, models)
	e.models = models
	e.mu.Unlock()

	e.logger.Debug("piper voices scanned", "dir", e.config.VoicesDir, "count", len(models))
	if changed {
		select {
		case e.changed <- struct{}{}:
		default:
		}
	}
	return nil
}

func sameModels(a, b []model) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Voices returns the installed voices.
func (e *Engine) Voices() []tts.Voice {
	e.mu.RLock()
	defer e.mu.RUnlock()

	voices := make([]tts.Voice, len(e.models))
	for i, m := range e.models {
		voices[i] = m.Voice
	}
	return voices
}

// VoicesChanged signals after a rescan found a different voice list.
func (e *Engine) VoicesChanged() <-chan struct{} {
	return e.changed
}

// pick returns the model for voice. The zero Voice selects the first zh-CN
// model, then the first model.
func (e *Engine) pick(voice tts.Voice) (model, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.models) == 0 {
		return model{}, fmt.Errorf("%w: no piper models in %s", tts.ErrVoiceNotFound, e.config.VoicesDir)
	}
	if !voice.IsZero() {
		for _, m := range e.models {
			if m.URI == voice.URI {
				return m, nil
			}
		}
		return model{}, fmt.Errorf("%w: %s", tts.ErrVoiceNotFound, voice.URI)
	}
	for _, m := range e.models {
		if m.Lang == tts.DefaultLang {
			return m, nil
		}
	}
	return e.models[0], nil
}

// args builds the piper command line.
func (e *Engine) args(m model, speed float64) []string {
	if speed <= 0 {
		speed = 1
	}
	args := []string{
		"--model", m.Path,
		"--output-raw",
		"--length_scale", strconv.FormatFloat(1/speed, 'f', 3, 64),
	}
	if e.config.SpeakerID >= 0 && m.NumSpeakers > 1 {
		args = append(args, "--speaker", strconv.Itoa(e.config.SpeakerID))
	}
	return args
}

// Synthesize converts text to 16-bit mono PCM. Pitch is not supported by
// piper and is ignored.
func (e *Engine) Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, tts.ErrEngineShutdown
	}

	m, err := e.pick(req.Voice)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	args := e.args(m, req.Rate)
	cmd := exec.CommandContext(runCtx, e.config.Binary, args...)
	cmd.Stdin = strings.NewReader(req.Text + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	output, err := cmd.Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: piper timed out after %v", tts.ErrGenerationFailed, e.config.Timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		return nil, fmt.Errorf("%w: piper: %v: %s", tts.ErrGenerationFailed, err, msg)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%w: piper produced no audio", tts.ErrGenerationFailed)
	}
	if len(output)%2 != 0 {
		output = output[:len(output)-1]
	}

	e.logger.Debug("piper synthesized", "voice", m.URI, "bytes", len(output), "took", time.Since(start))

	return &tts.Audio{
		Data:       output,
		SampleRate: m.SampleRate,
		Channels:   1,
		Duration:   tts.PCMDuration(len(output), m.SampleRate, 1),
	}, nil
}

// IsAvailable checks that the binary can be found and a voice is installed.
func (e *Engine) IsAvailable() bool {
	if _, err := exec.LookPath(e.config.Binary); err != nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed && len(e.models) > 0
}

// Shutdown marks the engine closed. Running processes end with their
// contexts.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
