package engines

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/tingshu/tts"
	"github.com/dgnsrekt/tingshu/tts/engines/mock"
)

func newMock() *mock.MockEngine {
	e := mock.New()
	e.SetDelay(0)
	return e
}

func TestFallbackSwitchesAfterFailures(t *testing.T) {
	primary, secondary := newMock(), newMock()
	primary.SetFailure(errors.New("primary engine failure"))

	f := NewFallback(primary, secondary, 2, nil)
	defer f.Shutdown()
	req := tts.SynthesisRequest{Text: "测试", Rate: 1}

	if _, err := f.Synthesize(context.Background(), req); err == nil {
		t.Fatal("first attempt should fail")
	}
	if f.UsingFallback() {
		t.Fatal("switched too early")
	}

	audio, err := f.Synthesize(context.Background(), req)
	if err != nil || audio == nil {
		t.Fatalf("second attempt should use the fallback: %v", err)
	}
	if !f.UsingFallback() {
		t.Error("should be using the fallback engine")
	}
	if got := f.Status(); got != "using fallback engine (primary failed 2 times)" {
		t.Errorf("Status() = %q", got)
	}

	select {
	case <-f.VoicesChanged():
	case <-time.After(time.Second):
		t.Error("switching engines should signal a voice change")
	}

	if _, err := f.Synthesize(context.Background(), req); err != nil {
		t.Errorf("later calls should use the fallback: %v", err)
	}
	if primary.CallCount() != 2 || secondary.CallCount() != 2 {
		t.Errorf("calls = %d/%d, want 2/2", primary.CallCount(), secondary.CallCount())
	}

	f.Reset()
	if f.UsingFallback() || !strings.HasPrefix(f.Status(), "using primary") {
		t.Error("Reset should return to the primary engine")
	}
}

func TestFallbackRecoveryResetsCount(t *testing.T) {
	primary, secondary := newMock(), newMock()
	f := NewFallback(primary, secondary, 2, nil)
	defer f.Shutdown()
	req := tts.SynthesisRequest{Text: "字"}

	primary.SetFailure(errors.New("flaky"))
	_, _ = f.Synthesize(context.Background(), req)
	primary.ClearFailure()
	_, _ = f.Synthesize(context.Background(), req)
	primary.SetFailure(errors.New("flaky"))
	_, _ = f.Synthesize(context.Background(), req)

	if f.UsingFallback() {
		t.Error("a success in between should reset the failure count")
	}
}

func TestFallbackUnavailablePrimary(t *testing.T) {
	primary, secondary := newMock(), newMock()
	_ = primary.Shutdown()

	f := NewFallback(primary, secondary, 3, nil)
	defer f.Shutdown()

	if !f.UsingFallback() || !f.IsAvailable() {
		t.Error("an unavailable primary should start on the fallback")
	}
	if _, err := f.Synthesize(context.Background(), tts.SynthesisRequest{Text: "字"}); err != nil {
		t.Errorf("Synthesize() = %v", err)
	}
}

func TestFallbackBothFail(t *testing.T) {
	primary, secondary := newMock(), newMock()
	primary.SetFailure(errors.New("primary down"))
	secondary.SetFailure(errors.New("secondary down"))

	f := NewFallback(primary, secondary, 1, nil)
	defer f.Shutdown()

	_, err := f.Synthesize(context.Background(), tts.SynthesisRequest{Text: "字"})
	if err == nil || !strings.Contains(err.Error(), "secondary down") || !strings.Contains(err.Error(), "primary down") {
		t.Errorf("err = %v, want both causes", err)
	}
}

func TestFallbackForwardsActiveVoiceChanges(t *testing.T) {
	primary, secondary := newMock(), newMock()
	f := NewFallback(primary, secondary, 1, nil)
	defer f.Shutdown()

	secondary.SetVoices(nil)
	select {
	case <-f.VoicesChanged():
		t.Fatal("inactive engine changes should not be forwarded")
	case <-time.After(50 * time.Millisecond):
	}

	primary.SetVoices([]tts.Voice{{URI: "x", Lang: "zh-CN"}})
	select {
	case <-f.VoicesChanged():
	case <-time.After(time.Second):
		t.Fatal("active engine change was not forwarded")
	}
	if v := f.Voices(); len(v) != 1 || v[0].URI != "x" {
		t.Errorf("Voices() = %+v", v)
	}
}
