// Package server exposes the prompt filter over HTTP for long-lived
// embeddings. Every request goes through the same Filter, and therefore the
// same serialized audit sink, as the command line hook.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gzhole/promptshield/internal/hook"
	"github.com/rs/zerolog"
)

// ClassifyResponse is the body of POST /v1/classify.
type ClassifyResponse struct {
	Risks          []string `json:"risks"`
	Compliance     []string `json:"compliance"`
	Decision       string   `json:"decision"`
	Action         string   `json:"action"`
	Blocked        bool     `json:"blocked"`
	Warning        string   `json:"warning,omitempty"`
	ComplianceNote string   `json:"compliance_note,omitempty"`
	Error          string   `json:"error,omitempty"`
}

type Server struct {
	app    *fiber.App
	filter *hook.Filter
	log    zerolog.Logger
}

func New(filter *hook.Filter, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "promptshield",
	})
	s := &Server{app: app, filter: filter, log: logger}

	app.Get("/healthz", s.health)
	app.Post("/v1/classify", s.classify)
	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("promptshield server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) classify(c *fiber.Ctx) error {
	out := s.filter.Run(c.UserContext(), c.Body())

	resp := ClassifyResponse{
		Risks:      out.Result.RiskNames(),
		Compliance: out.Result.ComplianceNames(),
		Decision:   string(out.Result.Decision),
		Action:     out.Result.Decision.Action(),
		Blocked:    out.Result.Blocked(),
	}

	switch r := out.Response.(type) {
	case hook.AdvisoryResponse:
		resp.Warning = r.Warning
		resp.ComplianceNote = r.ComplianceNote
	case hook.BlockResponse:
		resp.Error = r.Error
	case hook.ErrorResponse:
		resp.Error = r.Error
	}

	if out.Err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(out.Err, hook.ErrMalformedInput) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(resp)
	}
	return c.JSON(resp)
}
