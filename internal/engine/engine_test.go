package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/yok-tottii/performia-monitor/internal/audio"
	"github.com/yok-tottii/performia-monitor/internal/audiotest"
)

func newTestEngine(t *testing.T, driver *audiotest.MockDriver) *Engine {
	t.Helper()
	config := DefaultConfig()
	config.Stream.FramesPerBuffer = 256
	return New(driver, config, nil)
}

func openAndStart(t *testing.T, e *Engine) audio.DeviceState {
	t.Helper()
	state, err := e.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return state
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Uninitialized, "Uninitialized"},
		{Prepared, "Prepared"},
		{Processing, "Processing"},
		{Released, "Released"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNegotiationFallsBackToStereo(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256, 8)
	e := newTestEngine(t, driver)

	state, err := e.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if e.State() != Prepared {
		t.Errorf("State = %v, want Prepared", e.State())
	}
	if len(state.ActiveInputs) != 2 {
		t.Errorf("active inputs = %v, want 2 channels", state.ActiveInputs)
	}

	opens := driver.Opens()
	if len(opens) != 3 {
		t.Fatalf("got %d open attempts, want 3", len(opens))
	}
	for i, want := range []int{256, 8, 2} {
		if opens[i].InputChannels != want {
			t.Errorf("attempt %d requested %d channels, want %d", i, opens[i].InputChannels, want)
		}
		if opens[i].OutputChannels != DefaultChannelCount {
			t.Errorf("attempt %d requested %d outputs, want 2", i, opens[i].OutputChannels)
		}
	}

	if info := e.DeviceInfo(); info.InputChannelCount != 2 || info.OutputChannelCount != 2 {
		t.Errorf("DeviceInfo counts = %d/%d, want 2/2", info.InputChannelCount, info.OutputChannelCount)
	}
}

func TestNegotiationTakesFirstAccepted(t *testing.T) {
	driver := audiotest.NewMockDriver()
	e := newTestEngine(t, driver)

	state, err := e.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(state.ActiveInputs) != 256 {
		t.Errorf("got %d inputs, want 256", len(state.ActiveInputs))
	}
	if n := len(driver.Opens()); n != 1 {
		t.Errorf("got %d open attempts, want 1", n)
	}
}

func TestNegotiationFailure(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256, 8, 2)
	e := newTestEngine(t, driver)

	_, err := e.Open(context.Background())
	if !errors.Is(err, ErrNegotiationFailed) {
		t.Fatalf("Open error = %v, want ErrNegotiationFailed", err)
	}
	if e.State() != Uninitialized {
		t.Errorf("State = %v, want Uninitialized", e.State())
	}
	if err := e.Start(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Start error = %v, want ErrNotOpen", err)
	}
}

func TestNegotiationHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t, audiotest.NewMockDriver())
	if _, err := e.Open(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Open error = %v, want context.Canceled", err)
	}
}

func TestProcessBeforePreparePanics(t *testing.T) {
	e := newTestEngine(t, audiotest.NewMockDriver())

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNotPrepared) {
			t.Errorf("recovered %v, want ErrNotPrepared", r)
		}
	}()

	e.Process(audiotest.NewBlock(2, 2, 16))
	t.Error("Process did not panic")
}

func TestProcessAfterReleasePanics(t *testing.T) {
	driver := audiotest.NewMockDriver()
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if e.State() != Released {
		t.Fatalf("State = %v, want Released", e.State())
	}

	defer func() {
		if recover() == nil {
			t.Error("Process after Release did not panic")
		}
	}()
	e.Process(audiotest.NewBlock(2, 2, 16))
}

func TestLifecycle(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256, 8)
	e := newTestEngine(t, driver)

	if e.State() != Uninitialized {
		t.Fatalf("initial State = %v", e.State())
	}

	openAndStart(t, e)
	if !e.Running() || !driver.Running() {
		t.Fatal("engine should be running")
	}

	if !driver.Deliver(audiotest.NewBlock(2, 2, 256)) {
		t.Fatal("block was not delivered")
	}
	if e.State() != Processing {
		t.Errorf("State = %v, want Processing", e.State())
	}

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if e.Running() || driver.Running() {
		t.Error("engine should be stopped")
	}
	if driver.Deliver(audiotest.NewBlock(2, 2, 256)) {
		t.Error("block delivered after shutdown")
	}

	// Released re-enters Prepared on a new open
	if _, err := e.Open(context.Background()); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if e.State() != Prepared {
		t.Errorf("State = %v, want Prepared", e.State())
	}
}

func TestPrepareRejectsInvalidSampleRate(t *testing.T) {
	e := newTestEngine(t, audiotest.NewMockDriver())

	defer func() {
		if recover() == nil {
			t.Error("Prepare(0) did not panic")
		}
	}()
	e.Prepare(0, 512)
}

func TestEngineMonitorScenario(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256, 8)
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	e.SetInputGain(100)
	e.SetOutputVolume(50)
	if !e.SetMode(ModeMonitor) {
		t.Fatal("SetMode(Monitor) refused")
	}

	block := audiotest.NewBlock(2, 2, 256)
	audiotest.Fill(block.In[0], 0.1)
	driver.Deliver(block)

	for ch, out := range block.Out {
		if out[0] != 0.1 || out[255] != 0.1 {
			t.Errorf("out[%d] = %v..%v, want 0.1", ch, out[0], out[255])
		}
	}

	in, out := e.RawLevels()
	if in != 0.2 || out != 0.1 {
		t.Errorf("RawLevels = %v, %v; want 0.2, 0.1", in, out)
	}
}

func TestEngineTestTone(t *testing.T) {
	driver := audiotest.NewMockDriver()
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	e.SetOutputVolume(100)
	e.SetTestFrequency(480)
	e.SetMode(ModeTestTone)

	const blocks = 10
	for i := 0; i < blocks; i++ {
		driver.Deliver(audiotest.NewBlock(256, 2, 256))
	}

	_, out := e.RawLevels()
	if math.Abs(float64(out-TestToneLevel)) > 1e-3 {
		t.Errorf("output level = %v, want ~%v", out, TestToneLevel)
	}

	want := math.Mod(480.0/48000*blocks*256, 1)
	if d := circularDistance(e.path.Phase(), want); d > 1e-9 {
		t.Errorf("phase = %v, want %v", e.path.Phase(), want)
	}
}

func TestPowerOffForcesModeOff(t *testing.T) {
	driver := audiotest.NewMockDriver()
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	e.SetMode(ModeTestTone)
	driver.Deliver(audiotest.NewBlock(2, 2, 64))
	if _, out := e.RawLevels(); out == 0 {
		t.Fatal("tone should produce output")
	}

	e.SetPower(false)
	if e.Mode() != ModeOff {
		t.Errorf("Mode = %v, want off", e.Mode())
	}
	if in, out := e.RawLevels(); in != 0 || out != 0 {
		t.Errorf("levels = %v, %v; want 0", in, out)
	}
	if e.SetMode(ModeMonitor) {
		t.Error("SetMode should be refused while powered off")
	}

	block := audiotest.NewBlock(2, 2, 64)
	driver.Deliver(block)
	if audiotest.Peak(block.Out[0]) != 0 {
		t.Error("powered-off engine produced output")
	}

	e.SetPower(true)
	if e.Mode() != ModeOff {
		t.Error("power on should not restore the previous mode")
	}
	if !e.SetMode(ModeMonitor) {
		t.Error("SetMode should succeed once powered")
	}
}

func TestModesAreExclusive(t *testing.T) {
	c := NewControls()
	c.SetMode(ModeTestTone)
	c.SetMode(ModeMonitor)
	if c.Mode() != ModeMonitor {
		t.Errorf("Mode = %v, want monitor", c.Mode())
	}
	if c.SetMode(Mode(7)) {
		t.Error("invalid mode accepted")
	}
}

func TestControlRanges(t *testing.T) {
	c := NewControls()

	if c.InputGain() != 2 || c.OutputVolume() != 0.75 || c.TestFrequency() != 440 {
		t.Errorf("defaults = %v, %v, %v", c.InputGain(), c.OutputVolume(), c.TestFrequency())
	}

	c.SetInputGain(500)
	if c.InputGain() != 4 {
		t.Errorf("InputGain = %v, want 4", c.InputGain())
	}
	c.SetInputGain(-3)
	if c.InputGain() != 0 {
		t.Errorf("InputGain = %v, want 0", c.InputGain())
	}
	c.SetOutputVolume(150)
	if c.OutputVolume() != 1 {
		t.Errorf("OutputVolume = %v, want 1", c.OutputVolume())
	}
	c.SetTestFrequency(20)
	if c.TestFrequency() != MinTestFrequency {
		t.Errorf("TestFrequency = %v, want %v", c.TestFrequency(), MinTestFrequency)
	}
	c.SetTestFrequency(math.NaN())
	if c.TestFrequency() != MinTestFrequency {
		t.Errorf("TestFrequency = %v, want %v", c.TestFrequency(), MinTestFrequency)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeOff, ModeTestTone, ModeMonitor} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("loud"); err == nil {
		t.Error("ParseMode should reject unknown modes")
	}
}

func TestDeviceChangeRebuildsChannelMap(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256)
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	// Select physical 7 (logical 8) on the 8-channel device
	if !e.SelectInputChannel(8) {
		t.Fatal("SelectInputChannel(8) failed")
	}

	e.ApplyDeviceState(audio.DeviceState{
		Name:          "Reconfigured",
		SampleRate:    48000,
		BufferSize:    256,
		ActiveInputs:  []int{2, 5, 7},
		ActiveOutputs: []int{0, 1},
	})
	if got := e.InputChannels(); len(got) != 3 || got[2].Physical != 7 {
		t.Fatalf("InputChannels = %v", got)
	}
	if e.SelectedInputChannel() != 3 {
		t.Errorf("selection should follow physical 7 to logical 3, got %d", e.SelectedInputChannel())
	}

	e.ApplyDeviceState(audio.DeviceState{
		Name:          "Reconfigured",
		SampleRate:    48000,
		BufferSize:    256,
		ActiveInputs:  []int{2, 5},
		ActiveOutputs: []int{0, 1},
	})
	if info := e.DeviceInfo(); info.SelectedChannel != 1 || info.Name != "Reconfigured" {
		t.Errorf("DeviceInfo = %+v, want channel 1 selected", info)
	}
}

func TestWatchAppliesEvents(t *testing.T) {
	driver := audiotest.NewMockDriver()
	e := newTestEngine(t, driver)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Watch(ctx, driver.Events())
		close(done)
	}()

	driver.Emit(audio.DeviceState{
		Name:          "Hot-plugged",
		SampleRate:    44100,
		BufferSize:    128,
		ActiveInputs:  []int{2, 5, 7},
		ActiveOutputs: []int{0, 1},
	})

	deadline := time.Now().Add(2 * time.Second)
	for e.DeviceInfo().Name != "Hot-plugged" {
		if time.Now().After(deadline) {
			t.Fatal("device change was not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := e.InputChannels()[0].Physical; got != 2 {
		t.Errorf("first channel = %d, want 2", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestSelectInputChannel(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256)
	e := newTestEngine(t, driver)
	openAndStart(t, e)
	e.SetMode(ModeMonitor)

	if !e.SelectInputChannel(4) {
		t.Fatal("SelectInputChannel(4) failed")
	}
	if e.SelectInputChannel(9) {
		t.Error("SelectInputChannel(9) should fail on 8 channels")
	}

	block := audiotest.NewBlock(8, 2, 32)
	audiotest.Fill(block.In[0], 0.5)
	audiotest.Fill(block.In[3], 0.01)
	driver.Deliver(block)

	// The quiet selected channel wins over the louder one
	quiet := block.In[3][0]
	if want := quiet * e.InputGain() * e.OutputVolume(); block.Out[0][0] != want {
		t.Errorf("out = %v, want %v", block.Out[0][0], want)
	}
	if e.FallbackBlocks() != 0 {
		t.Errorf("FallbackBlocks = %d, want 0", e.FallbackBlocks())
	}

	silent := audiotest.NewBlock(8, 2, 32)
	audiotest.Fill(silent.In[6], 0.5)
	driver.Deliver(silent)
	if e.FallbackBlocks() != 1 {
		t.Errorf("FallbackBlocks = %d, want 1", e.FallbackBlocks())
	}
	if n := e.ReportFallbacks(); n != 1 {
		t.Errorf("ReportFallbacks = %d, want 1", n)
	}
	if n := e.ReportFallbacks(); n != 0 {
		t.Errorf("second ReportFallbacks = %d, want 0", n)
	}
}

func TestPreferredChannelFromConfig(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256)
	config := DefaultConfig()
	config.InputChannel = 3
	e := New(driver, config, nil)

	if _, err := e.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if e.SelectedInputChannel() != 3 {
		t.Errorf("SelectedInputChannel = %d, want 3", e.SelectedInputChannel())
	}
}

// interfaceDriver knows a stereo built-in device and an 18-channel
// interface, each accepting no more inputs than it has.
func interfaceDriver() *audiotest.MockDriver {
	driver := audiotest.NewMockDriver(
		audio.Device{Name: "Built-in", MaxInputChannels: 2, MaxOutputChannels: 2},
		audio.Device{Name: "Interface", MaxInputChannels: 18, MaxOutputChannels: 20},
	)
	driver.SetAccept(func(c audio.Config) bool {
		if c.InputDevice == "Interface" {
			return c.InputChannels <= 18
		}
		return c.InputChannels <= 2
	})
	return driver
}

func TestSelectDevice(t *testing.T) {
	driver := interfaceDriver()
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	status, err := e.SelectDevice(context.Background(), "Interface", true)
	if err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	if IsFallbackStatus(status) {
		t.Errorf("unexpected fallback status %q", status)
	}

	info := e.DeviceInfo()
	if info.Name != "Interface" || info.InputChannelCount != 8 {
		t.Errorf("DeviceInfo = %+v, want Interface with 8 inputs", info)
	}
	if info.Status != status {
		t.Errorf("Status = %q, want %q", info.Status, status)
	}
	if !e.Running() {
		t.Error("engine should be restarted after device change")
	}

	// 256 exceeds the interface and is never requested
	for _, c := range driver.Opens() {
		if c.InputDevice == "Interface" && c.InputChannels == 256 {
			t.Errorf("requested 256 channels from an 18-channel device")
		}
	}
	opens := driver.Opens()
	if last := opens[len(opens)-1]; last.InputDevice != "Interface" || last.InputChannels != 8 {
		t.Errorf("last open = %+v", last)
	}
}

func TestSelectDeviceFallsBackToDefaults(t *testing.T) {
	driver := interfaceDriver()
	driver.SetAccept(func(c audio.Config) bool {
		if c.InputDevice == "Interface" {
			// Only the device's own sample rate works
			return c.SampleRate == 0 && c.InputChannels <= 18
		}
		return c.InputChannels <= 2
	})
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	status, err := e.SelectDevice(context.Background(), "Interface", true)
	if err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	if !IsFallbackStatus(status) {
		t.Errorf("expected a fallback status, got %q", status)
	}

	info := e.DeviceInfo()
	if info.Name != "Interface" || info.InputChannelCount != DefaultChannelCount {
		t.Errorf("DeviceInfo = %+v", info)
	}
	if info.SampleRate != audiotest.DefaultSampleRate {
		t.Errorf("SampleRate = %v, want the device default", info.SampleRate)
	}

	opens := driver.Opens()
	last := opens[len(opens)-1]
	if last.InputChannels != DefaultChannelCount || last.SampleRate != 0 {
		t.Errorf("last open = %+v", last)
	}
}

func TestInputCounts(t *testing.T) {
	driver := audiotest.NewMockDriver(
		audio.Device{Name: "Mono", MaxInputChannels: 1},
		audio.Device{Name: "Stereo", MaxInputChannels: 2},
		audio.Device{Name: "Interface", MaxInputChannels: 18},
		audio.Device{Name: "Router", MaxInputChannels: 512},
		audio.Device{Name: "Speakers", MaxOutputChannels: 2},
	)
	e := newTestEngine(t, driver)

	tests := []struct {
		name string
		want []int
	}{
		{"", []int{256, 8, 2}},
		{"Mono", []int{1}},
		{"Stereo", []int{2}},
		{"Interface", []int{8, 2}},
		{"Router", []int{256, 8, 2}},
		{"Speakers", []int{256, 8, 2}},
		{"Unknown", []int{256, 8, 2}},
	}

	for _, tt := range tests {
		got := e.inputCounts(tt.name)
		if len(got) != len(tt.want) {
			t.Errorf("inputCounts(%q) = %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("inputCounts(%q) = %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestStaleDeviceStateIgnored(t *testing.T) {
	driver := interfaceDriver()
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	if _, err := e.SelectDevice(context.Background(), "Interface", true); err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}

	// Both opens are still queued; neither may undo the applied state
	for i := 0; i < 2; i++ {
		if e.ApplyDeviceState(<-driver.Events()) {
			t.Errorf("queued state %d was applied again", i)
		}
	}
	if info := e.DeviceInfo(); info.Name != "Interface" || info.InputChannelCount != 8 {
		t.Errorf("DeviceInfo = %+v, want Interface with 8 inputs", info)
	}

	driver.Emit(audio.DeviceState{Name: "Interface", SampleRate: 48000, ActiveInputs: []int{0, 1, 2, 3}, ActiveOutputs: []int{0, 1}})
	if !e.ApplyDeviceState(<-driver.Events()) {
		t.Fatal("newer state was ignored")
	}
	if got := e.DeviceInfo().InputChannelCount; got != 4 {
		t.Errorf("input channels = %d, want 4", got)
	}
}

func TestIdleInputMeter(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256, 8)
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	block := audiotest.NewBlock(2, 2, 64)
	audiotest.Fill(block.In[0], 0.5)
	driver.Deliver(block)

	if e.Mode() != ModeOff {
		t.Fatalf("Mode = %v, want off", e.Mode())
	}
	if in, out := e.RawLevels(); in != 1 || out != 0 {
		t.Errorf("RawLevels = %v, %v; want 1, 0", in, out)
	}
	if audiotest.Peak(block.Out[0]) != 0 {
		t.Error("Mode Off produced output")
	}

	e.SetPower(false)
	driver.Deliver(block)
	if in, out := e.RawLevels(); in != 0 || out != 0 {
		t.Errorf("powered-off RawLevels = %v, %v; want 0", in, out)
	}
}

func TestSelectDeviceRestoresPrevious(t *testing.T) {
	driver := audiotest.NewMockDriver(
		audio.Device{Name: "Built-in", MaxInputChannels: 2, MaxOutputChannels: 2},
	)
	driver.RejectInputChannels(256, 8)
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	status, err := e.SelectDevice(context.Background(), "Missing", true)
	if !errors.Is(err, audio.ErrDeviceNotFound) {
		t.Fatalf("SelectDevice error = %v, want ErrDeviceNotFound", err)
	}
	if status == "" || IsFallbackStatus(status) || e.DeviceInfo().Status != status {
		t.Errorf("status %q not reported", status)
	}

	if e.State() != Prepared {
		t.Errorf("State = %v, want Prepared", e.State())
	}
	if !driver.Running() {
		t.Error("previous device should be running again")
	}
	if got := e.DeviceInfo().InputChannelCount; got != 2 {
		t.Errorf("input channels = %d, want 2", got)
	}
}

func TestRefresh(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256)
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	state, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if driver.Rescans() != 1 {
		t.Errorf("Rescans = %d, want 1", driver.Rescans())
	}
	if len(state.ActiveInputs) != 8 {
		t.Errorf("inputs = %d, want 8", len(state.ActiveInputs))
	}
	if !e.Running() {
		t.Error("engine should be running after refresh")
	}
}

func TestRefreshRenegotiates(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256)
	e := newTestEngine(t, driver)
	openAndStart(t, e)

	// The device lost channels while the stream was open
	driver.RejectInputChannels(256, 8)

	state, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(state.ActiveInputs) != 2 {
		t.Errorf("inputs = %d, want 2", len(state.ActiveInputs))
	}
}

func TestDeviceInfo(t *testing.T) {
	driver := audiotest.NewMockDriver()
	driver.RejectInputChannels(256, 8)
	e := newTestEngine(t, driver)

	if info := e.DeviceInfo(); info.State != "Uninitialized" || info.InputChannelCount != 0 {
		t.Errorf("DeviceInfo before open = %+v", info)
	}

	openAndStart(t, e)
	info := e.DeviceInfo()

	if info.SampleRate != 48000 || info.BufferSize != 256 {
		t.Errorf("format = %v Hz / %d", info.SampleRate, info.BufferSize)
	}
	if math.Abs(info.LatencyMs-256.0*1000/48000) > 1e-9 {
		t.Errorf("LatencyMs = %v", info.LatencyMs)
	}
	if info.Type != "Mock" || info.SelectedChannel != 1 {
		t.Errorf("DeviceInfo = %+v", info)
	}

	sr, bs := e.Format()
	if sr != 48000 || bs != 256 {
		t.Errorf("Format = %v, %d", sr, bs)
	}
}
