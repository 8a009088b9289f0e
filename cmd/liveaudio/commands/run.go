package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-liveaudio/internal/config"
	"github.com/teslashibe/go-liveaudio/internal/httpc"
	"github.com/teslashibe/go-liveaudio/internal/log"
	"github.com/teslashibe/go-liveaudio/pkg/app"
	"github.com/teslashibe/go-liveaudio/pkg/audioio"
	"github.com/teslashibe/go-liveaudio/pkg/live"
	"github.com/teslashibe/go-liveaudio/pkg/persona"
	"github.com/teslashibe/go-liveaudio/pkg/visual"
	"github.com/teslashibe/go-liveaudio/pkg/voices"
	"github.com/teslashibe/go-liveaudio/pkg/web"
)

// run: open a session and serve the dashboard until interrupted.
func runCmd() *cobra.Command {
	var transcribe bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the live audio client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg, transcribe)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", config.DefaultAddr, "dashboard listen address")
	f.StringVar(&cfg.Transport, "transport", config.DefaultTransport, "live transport: "+strings.Join(live.Transports(), ", "))
	f.StringVar(&cfg.Audio, "audio", config.DefaultAudio, "audio backend: "+strings.Join(config.AudioBackends, ", "))
	f.StringVar(&cfg.Voice, "voice", "", "voice name (default "+voices.DefaultVoice+")")
	f.StringVar(&cfg.InstructionFile, "instruction-file", "", "file holding the system instruction")
	f.StringVar(&cfg.Model, "model", "", "model name (default "+live.DefaultModel+")")
	f.BoolVar(&cfg.NoWeb, "no-web", false, "do not serve the dashboard; start recording immediately")
	f.BoolVar(&transcribe, "transcribe", true, "ask the model for input and output transcripts")
	return cmd
}

func settingsFrom(c config.Config) (persona.Settings, error) {
	s := persona.DefaultSettings()
	if c.InstructionFile != "" {
		data, err := os.ReadFile(c.InstructionFile)
		if err != nil {
			return s, fmt.Errorf("read instruction file: %w", err)
		}
		s.SystemInstruction = strings.TrimSpace(string(data))
	}
	if c.Voice != "" {
		if !voices.IsKnown(c.Voice) {
			return s, fmt.Errorf("%w: %q (see `liveaudio voices`)", persona.ErrUnknownVoice, c.Voice)
		}
		s.Voice = c.Voice
	}
	return s, nil
}

func run(ctx context.Context, c config.Config, transcribe bool) error {
	logger := log.L()

	settings, err := settingsFrom(c)
	if err != nil {
		return err
	}

	dialer, err := live.NewDialer(c.Transport, live.Options{
		HTTPClient: httpc.Client,
		Logger:     log.Component("live"),
	})
	if err != nil {
		return err
	}

	captureCfg := audioio.DefaultCaptureConfig()
	captureCfg.Backend = audioio.Backend(c.Audio)
	playbackCfg := audioio.DefaultPlaybackConfig()
	playbackCfg.Backend = audioio.Backend(c.Audio)

	source, err := audioio.NewSource(captureCfg, log.Component("audio"))
	if err != nil {
		return fmt.Errorf("microphone: %w", err)
	}
	sink, err := audioio.NewSink(playbackCfg, log.Component("audio"))
	if err != nil {
		source.Close()
		return fmt.Errorf("speaker: %w", err)
	}

	liveCfg := live.DefaultConfig()
	liveCfg.APIKey = c.APIKey
	if c.Model != "" {
		liveCfg.Model = c.Model
	}
	liveCfg.Transcribe = transcribe

	var vis *visual.Visualizer
	if !c.NoWeb {
		vis = visual.NewVisualizer(800, 600, log.Component("visual"))
	}

	client, err := app.New(app.Options{
		Dialer:     dialer,
		Source:     source,
		Sink:       sink,
		Live:       liveCfg,
		Settings:   settings,
		Visualizer: vis,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Init(ctx); err != nil {
		return fmt.Errorf("start output: %w", err)
	}
	logger.Info("liveaudio ready",
		"transport", c.Transport,
		"audio", source.Name(),
		"voice", settings.Voice,
	)

	if c.NoWeb {
		if err := client.StartRecording(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		client.StopRecording()
		return nil
	}

	opts := web.Options{
		Addr:       c.Addr,
		Context:    ctx,
		App:        client,
		Visualizer: vis,
		Logger:     log.Component("web"),
	}
	if mic, ok := source.(*audioio.BrowserSource); ok {
		opts.Mic = mic
	}
	if speaker, ok := sink.(*audioio.BrowserSink); ok {
		opts.Speaker = speaker
	}
	srv := web.NewServer(opts)

	ctx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		vis.Run(ctx)
	}()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
