package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/peerhq/peer/pkg/evidence"
	"github.com/peerhq/peer/pkg/focus"
	"github.com/peerhq/peer/pkg/history"
	"github.com/peerhq/peer/pkg/vision"
)

// handleStartSession creates a session for the current user.
func (s *Server) handleStartSession(c *fiber.Ctx) error {
	user := currentUser(c)

	id, err := s.manager.StartSession(user.UserID)
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(fiber.Map{
		"session_id": id,
		"status":     string(focus.StatusCalibrating),
	})
}

// handleCalibrate folds one detection frame into the calibration window.
func (s *Server) handleCalibrate(c *fiber.Ctx) error {
	var frame vision.Frame
	if err := c.BodyParser(&frame); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid frame payload",
		})
	}

	remaining, err := s.manager.SubmitCalibrationFrame(c.Params("id"), frame)
	if err != nil {
		if errors.Is(err, focus.ErrInsufficientLandmarks) {
			// Retryable: the session stays in calibrating.
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":     "insufficient landmarks",
				"remaining": remaining,
			})
		}
		return s.engineError(c, err)
	}
	return c.JSON(fiber.Map{
		"remaining":  remaining,
		"calibrated": remaining == 0,
	})
}

// handleRecalibrate opens a fresh calibration window.
func (s *Server) handleRecalibrate(c *fiber.Ctx) error {
	if err := s.manager.Recalibrate(c.Params("id")); err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(fiber.Map{"status": "recalibrating"})
}

// handleActivate transitions a calibrated session to active monitoring.
func (s *Server) handleActivate(c *fiber.Ctx) error {
	if err := s.manager.ActivateSession(c.Params("id")); err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(fiber.Map{"status": string(focus.StatusActive)})
}

// handleFrame runs one detection frame through the pipeline.
func (s *Server) handleFrame(c *fiber.Ctx) error {
	var frame vision.Frame
	if err := c.BodyParser(&frame); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid frame payload",
		})
	}

	score, err := s.manager.SubmitFrame(c.Params("id"), frame)
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(fiber.Map{"focus_score": int(score)})
}

// handleEndSession seals the session and returns the full record.
func (s *Server) handleEndSession(c *fiber.Ctx) error {
	rec, err := s.manager.EndSession(c.Params("id"))
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(rec)
}

// handleStats returns the live score for the user's active session,
// mirroring the original /stats endpoint.
func (s *Server) handleStats(c *fiber.Ctx) error {
	user := currentUser(c)

	id, ok := s.manager.ActiveSessionID(user.UserID)
	if !ok {
		return c.JSON(fiber.Map{"focus_score": int(focus.MaxScore), "status": "IDLE"})
	}

	stats, err := s.manager.LiveStats(id)
	if err != nil {
		return s.engineError(c, err)
	}
	return c.JSON(fiber.Map{
		"focus_score": int(stats.Score),
		"status":      stats.Status,
		"reason":      stats.Reason,
		"session_id":  stats.SessionID,
	})
}

// handleHistory lists session summaries for the current user.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	user := currentUser(c)

	summaries, err := s.history.List(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if summaries == nil {
		summaries = []history.Summary{}
	}
	return c.JSON(summaries)
}

// handleSessionDetail returns the full event list with evidence refs.
// Live sessions come from the manager, sealed ones from history.
func (s *Server) handleSessionDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	if rec, err := s.manager.GetSession(id); err == nil {
		return c.JSON(rec)
	}

	rec, err := s.history.Get(id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "session not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(rec)
}

// handleEvidence serves a captured evidence frame.
func (s *Server) handleEvidence(c *fiber.Ctx) error {
	data, err := s.evidence.Load(c.Params("ref"))
	if err != nil {
		if errors.Is(err, evidence.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "evidence not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Type("jpg")
	return c.Send(data)
}

// engineError maps engine sentinel errors to HTTP responses.
func (s *Server) engineError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, focus.ErrSessionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, focus.ErrStaleSession),
		errors.Is(err, focus.ErrAlreadyActive):
		status = fiber.StatusConflict
	case errors.Is(err, focus.ErrNotCalibrated),
		errors.Is(err, focus.ErrNotActive):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
