package serve

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/everydev1618/vegadock/tools"
)

// maxCallsLimit caps GET /api/v1/calls.
const maxCallsLimit = 500

func (s *Server) handleHealth(c *fiber.Ctx) error {
	docker := s.cfg.DockerPing != nil && s.cfg.DockerPing(c.UserContext()) == nil
	return c.JSON(fiber.Map{
		"status": "ok",
		"docker": docker,
		"tools":  len(s.tools.Schema()),
		"audit":  s.store != nil,
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleListTools(c *fiber.Ctx) error {
	return c.JSON(s.tools.Schema())
}

func (s *Server) handleCallTool(c *fiber.Ctx) error {
	name := c.Params("name")

	params := map[string]any{}
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "request body must be a JSON object of arguments",
			})
		}
	}

	res, err := s.tools.Invoke(c.UserContext(), name, params)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown tool: " + name,
			})
		}
		return err
	}
	return c.JSON(res)
}

func (s *Server) handleListCalls(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "audit log is disabled",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > maxCallsLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 500",
		})
	}

	calls, err := s.store.ListCalls(c.Query("tool"), limit)
	if err != nil {
		return err
	}
	return c.JSON(calls)
}
