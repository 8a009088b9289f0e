// Package web serves the local dashboard: the settings panel, the recording
// controls, the orb visualization and, for the browser audio backend, the
// microphone and speaker streams.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-liveaudio/pkg/app"
	"github.com/teslashibe/go-liveaudio/pkg/audioio"
	"github.com/teslashibe/go-liveaudio/pkg/hub"
	"github.com/teslashibe/go-liveaudio/pkg/visual"
)

//go:embed static
var staticFiles embed.FS

// Options configures the dashboard.
type Options struct {
	Addr string

	// Context bounds work started from requests that outlives them, such
	// as a recording or a session reset.
	Context context.Context

	App        *app.App
	Visualizer *visual.Visualizer

	// Mic and Speaker are set when the browser audio backend is in use.
	Mic     *audioio.BrowserSource
	Speaker *audioio.BrowserSink

	Logger *slog.Logger
}

// Server is the web dashboard server
type Server struct {
	fiber  *fiber.App
	addr   string
	ctx    context.Context
	client *app.App
	vis    *visual.Visualizer
	mic    *audioio.BrowserSource
	logger *slog.Logger

	// Hubs for websocket broadcast
	stateHub   *hub.Hub
	visualHub  *hub.Hub
	speakerHub *hub.Hub

	unsubscribe func()
}

// NewServer creates the dashboard and subscribes it to client state,
// visualizer frames and browser speaker audio.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Server{
		addr:       opts.Addr,
		ctx:        ctx,
		client:     opts.App,
		vis:        opts.Visualizer,
		mic:        opts.Mic,
		logger:     logger.With("component", "web"),
		stateHub:   hub.New("state", logger),
		visualHub:  hub.New("visual", logger),
		speakerHub: hub.New("speaker", logger),
	}

	s.stateHub.OnConnect(func(c *hub.Client) {
		if data, err := jsonBytes(s.client.State()); err == nil {
			c.Send(hub.NewJSONMessage(data))
		}
	})
	s.unsubscribe = s.client.Subscribe(func(st app.State) {
		if err := s.stateHub.BroadcastJSON(st); err != nil {
			s.logger.Warn("failed to encode state", "error", err)
		}
	})
	if s.vis != nil {
		s.vis.OnFrame(func(f visual.Frame) {
			if s.visualHub.ClientCount() > 0 {
				_ = s.visualHub.BroadcastJSON(f)
			}
		})
	}
	if opts.Speaker != nil {
		opts.Speaker.OnAudio(s.speakerHub.BroadcastBinary)
	}

	f := fiber.New(fiber.Config{
		AppName:               "liveaudio",
		DisableStartupMessage: true,
	})

	// CORS for local development
	f.Use(cors.New())

	api := f.Group("/api")
	api.Get("/config", s.handleConfig)
	api.Get("/state", s.handleState)
	api.Get("/voices", s.handleVoices)
	api.Post("/voices/:name/preview", s.handlePreview)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)
	api.Post("/settings/toggle", s.handleToggleSettings)
	api.Get("/panel", s.handlePanel)
	api.Put("/panel/instruction", s.handlePanelInstruction)
	api.Post("/panel/dropdown", s.handlePanelDropdown)
	api.Post("/panel/voice/:name", s.handlePanelVoice)
	api.Post("/panel/save", s.handlePanelSave)
	api.Post("/recording/start", s.handleStartRecording)
	api.Post("/recording/stop", s.handleStopRecording)
	api.Post("/session/reset", s.handleReset)
	api.Get("/metrics", s.handleMetrics)
	api.Get("/visual", s.handleVisual)
	api.Put("/visual/size", s.handleResize)

	// WebSocket upgrade middleware
	f.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	f.Get("/ws/state", websocket.New(s.serveHub(s.stateHub)))
	f.Get("/ws/visual", websocket.New(s.serveHub(s.visualHub)))
	f.Get("/ws/speaker", websocket.New(s.serveHub(s.speakerHub)))
	f.Get("/ws/mic", s.micHandler())

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	f.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(static),
		Index: "index.html",
	}))

	s.fiber = f
	return s
}

// Fiber returns the underlying fiber app.
func (s *Server) Fiber() *fiber.App {
	return s.fiber
}

// Run starts the hubs and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.stateHub.Run(ctx)
	go s.visualHub.Run(ctx)
	go s.speakerHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "url", "http://"+s.addr)
		errCh <- s.fiber.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.fiber.Shutdown()
}

// serveHub attaches a websocket connection to a broadcast hub.
func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		hub.NewClient(h, conn).Run()
	}
}
