// Package app is the live audio client: it owns the session, the microphone
// pump, the playback scheduler and the user-facing state.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/teslashibe/go-liveaudio/pkg/audioio"
	"github.com/teslashibe/go-liveaudio/pkg/live"
	"github.com/teslashibe/go-liveaudio/pkg/persona"
	"github.com/teslashibe/go-liveaudio/pkg/playback"
	"github.com/teslashibe/go-liveaudio/pkg/visual"
)

// ErrNoDialer is returned by New when no session dialer is supplied.
var ErrNoDialer = errors.New("app: dialer is required")

// Options wires the client's collaborators.
type Options struct {
	Dialer live.Dialer
	Source audioio.Source
	Sink   audioio.Sink

	// Live carries the API key, model and transcription flag. Instruction
	// and voice come from Settings.
	Live     live.Config
	Settings persona.Settings

	// Visualizer, when set, receives input and output audio.
	Visualizer *visual.Visualizer

	Logger *slog.Logger
}

// App is the live audio client.
type App struct {
	dialer  live.Dialer
	source  audioio.Source
	sink    audioio.Sink
	player  *playback.Player
	vis     *visual.Visualizer
	panel   *persona.Panel
	metrics *MetricsCollector
	base    live.Config
	logger  *slog.Logger

	mu         sync.Mutex
	settings   persona.Settings
	recording  bool
	status     string
	errMsg     string
	history    []string
	settingsOn bool
	session    live.Session
	gen        uint64
	connected  bool
	transcript []TranscriptSegment
	pumpDone   chan struct{}
	subs       map[int]func(State)
	nextSub    int
}

// New creates a client. Source and Sink default to mock devices.
func New(opts Options) (*App, error) {
	if opts.Dialer == nil {
		return nil, ErrNoDialer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Source == nil {
		opts.Source = audioio.NewMockSource(audioio.DefaultCaptureConfig(), logger)
	}
	if opts.Sink == nil {
		opts.Sink = audioio.NewMockSink(audioio.DefaultPlaybackConfig(), logger)
	}
	settings := opts.Settings
	if settings.Voice == "" {
		settings.Voice = persona.DefaultSettings().Voice
	}

	rate := opts.Live.OutputSampleRate
	if rate == 0 {
		rate = opts.Sink.Config().SampleRate
	}
	player := playback.NewPlayer(rate)
	if opts.Visualizer != nil {
		player.SetTap(opts.Visualizer.Output)
	}

	return &App{
		dialer:   opts.Dialer,
		source:   opts.Source,
		sink:     opts.Sink,
		player:   player,
		vis:      opts.Visualizer,
		panel:    persona.NewPanel(),
		metrics:  NewMetricsCollector(),
		base:     opts.Live,
		logger:   logger.With("component", "app"),
		settings: settings,
		subs:     make(map[int]func(State)),
	}, nil
}

// Player returns the playback scheduler.
func (a *App) Player() *playback.Player { return a.player }

// Panel returns the settings panel.
func (a *App) Panel() *persona.Panel { return a.panel }

// Source returns the capture device.
func (a *App) Source() audioio.Source { return a.source }

// Sink returns the output device.
func (a *App) Sink() audioio.Sink { return a.sink }

// Metrics returns session metrics.
func (a *App) Metrics() Metrics { return a.metrics.Snapshot() }

// Init aligns the playback cursor, starts the output device and opens the
// first session. A failed connect is logged, not returned.
func (a *App) Init(ctx context.Context) error {
	a.player.Init()
	a.player.SetGain(1)
	if err := a.sink.Start(ctx, a.player); err != nil {
		return err
	}
	a.initSession(ctx)
	return nil
}

// Close stops capture, closes the session and releases devices.
func (a *App) Close() error {
	a.mu.Lock()
	a.recording = false
	sess := a.session
	a.session = nil
	a.gen++
	done := a.pumpDone
	a.mu.Unlock()

	var errs []error
	if err := a.source.Close(); err != nil {
		errs = append(errs, err)
	}
	if done != nil {
		<-done
	}
	if sess != nil {
		if err := sess.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.sink.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) sessionConfig() live.Config {
	cfg := a.base
	cfg.SystemInstruction = a.settings.SystemInstruction
	cfg.Voice = a.settings.Voice
	return cfg
}

// initSession connects with the current instruction and voice. Callbacks
// from a session that has since been replaced are dropped.
func (a *App) initSession(ctx context.Context) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	cfg := a.sessionConfig()
	a.mu.Unlock()

	sess, err := a.dialer.Connect(ctx, cfg, a.callbacks(gen))
	if err != nil {
		a.logger.Error("failed to open live session", "error", err)
		return
	}

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		_ = sess.Close()
		return
	}
	a.session = sess
	a.mu.Unlock()

	a.metrics.SessionOpened()
	a.logger.Info("live session ready", "session", sess.ID(), "voice", cfg.Voice)
	a.notify()
}

func (a *App) callbacks(gen uint64) live.Callbacks {
	current := func(event string) bool {
		a.mu.Lock()
		ok := gen == a.gen
		a.mu.Unlock()
		if !ok {
			a.logger.Debug("dropping event from replaced session", "event", event)
		}
		return ok
	}
	return live.Callbacks{
		OnOpen: func() {
			if !current("open") {
				return
			}
			a.mu.Lock()
			a.connected = true
			a.mu.Unlock()
			a.updateStatus(StatusOpened)
		},
		OnMessage: func(m live.Message) {
			if current("message") {
				a.handleMessage(m)
			}
		},
		OnError: func(err error) {
			if !current("error") {
				return
			}
			a.metrics.MarkError()
			a.logger.Error("live session error", "error", err)
			a.updateError(err.Error())
		},
		OnClose: func(ev live.CloseEvent) {
			if !current("close") {
				return
			}
			a.mu.Lock()
			a.connected = false
			a.mu.Unlock()
			a.updateStatus(StatusClosePrefix + ev.Reason)
		},
	}
}

// handleMessage schedules model audio, then honours an interruption.
func (a *App) handleMessage(m live.Message) {
	if m.InputTranscript != "" {
		a.metrics.MarkSpeechEnd()
	}

	if m.HasAudio() {
		samples, err := audioio.DecodePCM16(m.Audio)
		if err != nil {
			a.logger.Warn("dropping undecodable audio", "error", err, "bytes", len(m.Audio))
		} else {
			if rate := mimeRate(m.MIMEType); rate > 0 && rate != a.player.SampleRate() {
				samples = audioio.Resample(samples, rate, a.player.SampleRate())
			}
			a.player.Schedule(samples)
			a.metrics.AudioReceived(len(m.Audio))
		}
	}

	if m.Interrupted {
		n := a.player.Interrupt()
		a.metrics.MarkInterrupted()
		a.logger.Debug("playback interrupted", "stopped", n)
	}
	if m.TurnComplete {
		a.metrics.MarkResponseDone()
	}

	if m.InputTranscript != "" || m.OutputTranscript != "" {
		a.mu.Lock()
		a.transcript = appendTranscript(a.transcript, RoleUser, m.InputTranscript)
		a.transcript = appendTranscript(a.transcript, RoleModel, m.OutputTranscript)
		a.mu.Unlock()
		a.notify()
	}
}

// mimeRate extracts the rate parameter of "audio/pcm;rate=N".
func mimeRate(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && strings.EqualFold(k, "rate") {
			n, err := strconv.Atoi(v)
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// StartRecording opens the microphone and streams chunks to the session.
// It is a no-op while already recording.
func (a *App) StartRecording(ctx context.Context) error {
	a.mu.Lock()
	if a.recording {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	a.updateStatus(StatusRequestingMic)

	if err := a.source.Start(ctx); err != nil {
		a.logger.Error("error starting recording", "error", err)
		a.updateStatus(StatusErrorPrefix + err.Error())
		a.StopRecording()
		return err
	}

	a.updateStatus(StatusMicGranted)

	done := make(chan struct{})
	a.mu.Lock()
	a.recording = true
	a.pumpDone = done
	a.mu.Unlock()
	go a.pump(a.source.Stream(), done)

	a.updateStatus(StatusRecording)
	return nil
}

// pump forwards captured chunks while recording.
func (a *App) pump(stream <-chan audioio.AudioChunk, done chan struct{}) {
	defer close(done)
	for chunk := range stream {
		if a.vis != nil {
			a.vis.Input.Write(chunk.Samples)
		}

		a.mu.Lock()
		recording := a.recording
		sess := a.session
		a.mu.Unlock()
		if !recording || sess == nil {
			continue
		}

		enc := audioio.EncodeChunk(chunk)
		if err := sess.SendAudio(live.Blob{Data: enc.Data, MIMEType: enc.MIMEType}); err != nil {
			a.logger.Debug("failed to send audio", "error", err)
			continue
		}
		a.metrics.ChunkSent(len(enc.Data))
	}
}

// StopRecording tears down capture. Like the button it backs, it always
// reports the stop even when nothing was recording.
func (a *App) StopRecording() {
	a.updateStatus(StatusStopping)

	a.mu.Lock()
	a.recording = false
	done := a.pumpDone
	a.pumpDone = nil
	a.mu.Unlock()

	if err := a.source.Stop(); err != nil {
		a.logger.Warn("failed to stop capture", "error", err)
	}
	if done != nil {
		<-done
	}

	a.updateStatus(StatusStopped)
}

// Reset closes the session and opens a fresh one with the current settings.
func (a *App) Reset(ctx context.Context) {
	a.mu.Lock()
	old := a.session
	a.session = nil
	a.connected = false
	a.gen++
	a.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			a.logger.Warn("failed to close session", "error", err)
		}
	}
	a.updateStatus(StatusSessionCleared)
	a.initSession(ctx)
}

// ToggleSettings opens or closes the settings panel and returns the new
// state. Opening copies the current settings into the panel.
func (a *App) ToggleSettings() bool {
	a.mu.Lock()
	a.settingsOn = !a.settingsOn
	open := a.settingsOn
	current := a.settings
	a.mu.Unlock()

	if open {
		a.panel.Open(current)
	} else {
		a.panel.Close()
	}
	a.notify()
	return open
}

// SaveSettings applies a save event, closes the panel and, when not
// recording, resets the session so the change takes effect.
func (a *App) SaveSettings(ctx context.Context, ev persona.SaveEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	next, changed := persona.Apply(a.settings, ev)
	a.settings = next
	a.settingsOn = false
	recording := a.recording
	a.mu.Unlock()
	a.panel.Close()

	a.logger.Info("settings saved", "voice", next.Voice, "changed", changed)
	a.notify()

	if !recording {
		a.Reset(ctx)
	}
	return nil
}

// PlayPreview logs a preview request. No audio is synthesized.
func (a *App) PlayPreview(voice string) error {
	ev, err := a.panel.Preview(voice)
	if err != nil {
		return err
	}
	a.logger.Info(previewMessagePrefix + ev.Voice)
	return nil
}

// Settings returns the applied settings.
func (a *App) Settings() persona.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// DisplayStatus returns the error when one is set, else the status.
func (a *App) DisplayStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayLocked()
}

func (a *App) displayLocked() string {
	if a.errMsg != "" {
		return a.errMsg
	}
	return a.status
}

// Controls reports which buttons are usable.
func (a *App) Controls() Controls {
	a.mu.Lock()
	defer a.mu.Unlock()
	return controlsFor(a.recording)
}

// IsRecording reports whether captured audio is being sent.
func (a *App) IsRecording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording
}

// State returns a snapshot of the client.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

func (a *App) stateLocked() State {
	s := State{
		Recording:         a.recording,
		Status:            a.status,
		Error:             a.errMsg,
		Display:           a.displayLocked(),
		SettingsOpen:      a.settingsOn,
		SystemInstruction: a.settings.SystemInstruction,
		Voice:             a.settings.Voice,
		Connected:         a.connected,
		Controls:          controlsFor(a.recording),
		StatusHistory:     append([]string(nil), a.history...),
		Transcript:        append([]TranscriptSegment(nil), a.transcript...),
	}
	if a.session != nil {
		s.SessionID = a.session.ID()
	}
	return s
}

// Subscribe registers fn to receive a state snapshot after every change.
// The returned function unregisters it.
func (a *App) Subscribe(fn func(State)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs, id)
	}
}

func (a *App) updateStatus(msg string) {
	a.mu.Lock()
	a.status = msg
	a.history = append(a.history, msg)
	if len(a.history) > maxStatusHistory {
		a.history = a.history[len(a.history)-maxStatusHistory:]
	}
	a.mu.Unlock()
	a.logger.Debug("status", "status", msg)
	a.notify()
}

func (a *App) updateError(msg string) {
	a.mu.Lock()
	a.errMsg = msg
	a.mu.Unlock()
	a.notify()
}

func (a *App) notify() {
	a.mu.Lock()
	if len(a.subs) == 0 {
		a.mu.Unlock()
		return
	}
	s := a.stateLocked()
	subs := make([]func(State), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
