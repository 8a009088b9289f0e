package web

import (
	"strconv"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-liveaudio/pkg/audioio"
)

// maxMicFrame bounds one PCM16 frame from the page (about 1s at 48kHz).
const maxMicFrame = 96 * 1024

// micHandler ingests microphone audio captured by the page. Each binary
// message is little-endian PCM16 at the rate given by the "rate" query
// parameter. Text messages are ignored.
func (s *Server) micHandler() fiber.Handler {
	if s.mic == nil {
		return func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "browser audio is not enabled",
			})
		}
	}
	return contribws.New(func(conn *contribws.Conn) {
		rate, err := strconv.Atoi(conn.Query("rate", strconv.Itoa(audioio.InputSampleRate)))
		if err != nil || rate <= 0 {
			s.logger.Warn("rejecting mic stream with bad rate", "rate", conn.Query("rate"))
			_ = conn.WriteMessage(contribws.CloseMessage,
				contribws.FormatCloseMessage(contribws.CloseUnsupportedData, "bad rate"))
			return
		}

		s.logger.Info("browser microphone connected", "rate", rate)
		defer s.logger.Info("browser microphone disconnected")

		conn.SetReadLimit(maxMicFrame)
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != contribws.BinaryMessage {
				continue
			}
			if err := s.mic.Push(data, rate); err != nil {
				s.logger.Debug("dropping mic frame", "error", err, "bytes", len(data))
			}
		}
	})
}
