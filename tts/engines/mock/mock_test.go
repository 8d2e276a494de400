package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/tingshu/tts"
)

// TestNewMockEngine tests mock engine creation.
func TestNewMockEngine(t *testing.T) {
	engine := New()
	if !engine.IsAvailable() {
		t.Error("Mock engine should be available by default")
	}
	if len(engine.Voices()) == 0 {
		t.Error("Mock engine should have voices")
	}
}

// TestSynthesize tests audio generation and duration scaling.
func TestSynthesize(t *testing.T) {
	engine := New()
	engine.SetDelay(0)

	normal, err := engine.Synthesize(context.Background(), tts.SynthesisRequest{Text: "一二三四五六七八九", Rate: 1})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if normal.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", normal.Duration)
	}
	if normal.SampleRate != SampleRate || normal.Channels != 1 {
		t.Errorf("format = %d Hz x %d", normal.SampleRate, normal.Channels)
	}
	if len(normal.Data) != 2*SampleRate*2 {
		t.Errorf("len(Data) = %d", len(normal.Data))
	}

	fast, err := engine.Synthesize(context.Background(), tts.SynthesisRequest{Text: "一二三四五六七八九", Rate: 2})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if fast.Duration != time.Second {
		t.Errorf("Duration at rate 2 = %v, want 1s", fast.Duration)
	}

	if engine.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", engine.CallCount())
	}
	if engine.LastRequest().Rate != 2 {
		t.Errorf("LastRequest = %+v", engine.LastRequest())
	}
}

// TestSynthesizeFailure tests error injection.
func TestSynthesizeFailure(t *testing.T) {
	engine := New()
	engine.SetDelay(0)

	want := errors.New("boom")
	engine.SetFailure(want)
	if _, err := engine.Synthesize(context.Background(), tts.SynthesisRequest{Text: "x"}); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}

	engine.ClearFailure()
	if _, err := engine.Synthesize(context.Background(), tts.SynthesisRequest{Text: "x"}); err != nil {
		t.Errorf("err after ClearFailure = %v", err)
	}
}

// TestSynthesizeCancel tests that a cancelled context aborts the delay.
func TestSynthesizeCancel(t *testing.T) {
	engine := New()
	engine.SetDelay(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go cancel()

	if _, err := engine.Synthesize(ctx, tts.SynthesisRequest{Text: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// TestSetVoices tests voice replacement notifications.
func TestSetVoices(t *testing.T) {
	engine := New()
	engine.SetVoices([]tts.Voice{{URI: "a", Lang: "zh-CN"}})

	select {
	case <-engine.VoicesChanged():
	default:
		t.Fatal("expected a voices changed notification")
	}
	if v := engine.Voices(); len(v) != 1 || v[0].URI != "a" {
		t.Errorf("Voices = %+v", v)
	}
}

// TestShutdown tests engine shutdown.
func TestShutdown(t *testing.T) {
	engine := New()
	if err := engine.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if engine.IsAvailable() {
		t.Error("engine should be unavailable after shutdown")
	}
	if _, err := engine.Synthesize(context.Background(), tts.SynthesisRequest{Text: "x"}); !errors.Is(err, tts.ErrEngineShutdown) {
		t.Errorf("err = %v, want ErrEngineShutdown", err)
	}
}
