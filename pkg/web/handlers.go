package web

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-liveaudio/pkg/audioio"
	"github.com/teslashibe/go-liveaudio/pkg/persona"
	"github.com/teslashibe/go-liveaudio/pkg/voices"
)

func jsonBytes(v any) ([]byte, error) {
	return json.Marshal(v)
}

// errorStatus maps client errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, persona.ErrUnknownVoice):
		return fiber.StatusBadRequest
	case errors.Is(err, persona.ErrPanelClosed):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func conflict(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error": msg,
	})
}

// handleConfig tells the page which optional surfaces are enabled.
func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"browserAudio": s.mic != nil,
		"visual":       s.vis != nil,
		"inputRate":    audioio.InputSampleRate,
		"outputRate":   s.client.Player().SampleRate(),
	})
}

// handleState returns the client state
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.client.State())
}

// handleVoices returns the voice catalog
func (s *Server) handleVoices(c *fiber.Ctx) error {
	return c.JSON(voices.All())
}

func (s *Server) handlePreview(c *fiber.Ctx) error {
	name := c.Params("name")
	if !voices.IsKnown(name) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown voice: " + name,
		})
	}
	if err := s.client.PlayPreview(name); err != nil {
		return fail(c, err)
	}
	return c.JSON(persona.PreviewEvent{Voice: name})
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.client.Settings())
}

// handlePutSettings applies a save event directly, without the panel.
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	var ev persona.SaveEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid settings: " + err.Error(),
		})
	}
	if err := s.client.SaveSettings(s.ctx, ev); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.client.Settings())
}

func (s *Server) handleToggleSettings(c *fiber.Ctx) error {
	open := s.client.ToggleSettings()
	return c.JSON(fiber.Map{"open": open})
}

func (s *Server) handlePanel(c *fiber.Ctx) error {
	return c.JSON(s.client.Panel().View())
}

type instructionRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePanelInstruction(c *fiber.Ctx) error {
	var req instructionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	if err := s.client.Panel().SetInstruction(req.Text); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.client.Panel().View())
}

func (s *Server) handlePanelDropdown(c *fiber.Ctx) error {
	if _, err := s.client.Panel().ToggleDropdown(); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.client.Panel().View())
}

func (s *Server) handlePanelVoice(c *fiber.Ctx) error {
	if err := s.client.Panel().SelectVoice(c.Params("name")); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.client.Panel().View())
}

// handlePanelSave saves the panel draft, which closes the panel.
func (s *Server) handlePanelSave(c *fiber.Ctx) error {
	ev, err := s.client.Panel().Save()
	if err != nil {
		return fail(c, err)
	}
	if err := s.client.SaveSettings(s.ctx, ev); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.client.State())
}

func (s *Server) handleStartRecording(c *fiber.Ctx) error {
	if s.client.Controls().StartDisabled {
		return conflict(c, "already recording")
	}
	if err := s.client.StartRecording(s.ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
			"state": s.client.State(),
		})
	}
	return c.JSON(s.client.State())
}

func (s *Server) handleStopRecording(c *fiber.Ctx) error {
	if s.client.Controls().StopDisabled {
		return conflict(c, "not recording")
	}
	s.client.StopRecording()
	return c.JSON(s.client.State())
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	if s.client.Controls().ResetDisabled {
		return conflict(c, "cannot reset while recording")
	}
	s.client.Reset(s.ctx)
	return c.JSON(s.client.State())
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"session":  s.client.Metrics(),
		"playback": s.client.Player().Stats(),
		"clients": fiber.Map{
			"state":   s.stateHub.ClientCount(),
			"visual":  s.visualHub.ClientCount(),
			"speaker": s.speakerHub.ClientCount(),
		},
	})
}

func (s *Server) handleVisual(c *fiber.Ctx) error {
	if s.vis == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "visualizer disabled",
		})
	}
	return c.JSON(s.vis.Last())
}

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// handleResize tracks the page's canvas size so frames are laid out for it.
func (s *Server) handleResize(c *fiber.Ctx) error {
	if s.vis == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "visualizer disabled",
		})
	}
	var req sizeRequest
	if err := c.BodyParser(&req); err != nil || req.Width <= 0 || req.Height <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "width and height must be positive",
		})
	}
	s.vis.Resize(req.Width, req.Height)
	return c.SendStatus(fiber.StatusNoContent)
}
