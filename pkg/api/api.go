// Package api implements the REST API for translations, batch suite runs and
// the prime sieve.
package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/parser"
	"github.com/lemonberrylabs/shunting-yard/pkg/runtime"
	"github.com/lemonberrylabs/shunting-yard/pkg/sieve"
	"github.com/lemonberrylabs/shunting-yard/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	app    *fiber.App
	engine *runtime.Engine
	store  *store.Store
}

// Option configures a Server.
type Option func(*options)

type options struct {
	accessLog io.Writer
}

// WithAccessLog writes one line per HTTP request to w.
func WithAccessLog(w io.Writer) Option {
	return func(o *options) {
		o.accessLog = w
	}
}

// New creates a new API server around engine. The engine must have a store.
func New(engine *runtime.Engine, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	srv := &Server{
		engine: engine,
		store:  engine.Store(),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	if o.accessLog != nil {
		app.Use(logger.New(logger.Config{Output: o.accessLog}))
	}

	// Translations API
	app.Post("/v1/translations", srv.createTranslation)
	app.Get("/v1/translations", srv.listTranslations)
	app.Get("/v1/translations/:id", srv.getTranslation)
	app.Delete("/v1/translations/:id", srv.deleteTranslation)

	// Batches API
	app.Post("/v1/batches", srv.createBatch)
	app.Get("/v1/batches", srv.listBatches)
	app.Get("/v1/batches/:id", srv.getBatch)
	app.Get("/v1/operations/:id", srv.getBatch)

	app.Get("/v1/primes", srv.primes)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Translation Handlers ---

type createTranslationRequest struct {
	Expression *string `json:"expression"`
}

func (s *Server) createTranslation(c *fiber.Ctx) error {
	var req createTranslationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Expression == nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", "expression is required")
	}

	input := *req.Expression
	if err := expr.CheckLine(input); err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", err.Error())
	}

	tr := s.engine.Translate(input, runtime.SourceAPI)
	return c.Status(200).JSON(tr.ToMap())
}

func (s *Server) getTranslation(c *fiber.Ctx) error {
	tr, err := s.store.GetTranslation(translationName(c))
	if err != nil {
		return errorResponse(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(tr.ToMap())
}

func (s *Server) listTranslations(c *fiber.Ctx) error {
	translations := s.store.ListTranslations()

	items := make([]fiber.Map, len(translations))
	for i, tr := range translations {
		items[i] = tr.ToMap()
	}

	return c.JSON(fiber.Map{
		"translations": items,
	})
}

func (s *Server) deleteTranslation(c *fiber.Ctx) error {
	if err := s.store.DeleteTranslation(translationName(c)); err != nil {
		return errorResponse(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(fiber.Map{})
}

// --- Batch Handlers ---

type createBatchRequest struct {
	SourceContents string `json:"sourceContents"`
}

func (s *Server) createBatch(c *fiber.Ctx) error {
	var req createBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.SourceContents == "" {
		return errorResponse(c, 400, "INVALID_ARGUMENT", "sourceContents is required")
	}

	suite, err := parser.Parse([]byte(req.SourceContents))
	if err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid suite definition: %v", err))
	}

	batch := s.store.CreateBatch(suite.Name, req.SourceContents)

	// Suites are bounded by parser.MaxCases, so the batch runs inline and
	// the returned operation is already done.
	report, err := s.engine.RunSuite(c.UserContext(), suite, batch.Name)
	if err != nil {
		return errorResponse(c, 500, "INTERNAL", err.Error())
	}

	done, err := s.store.GetBatch(batch.Name)
	if err != nil {
		return errorResponse(c, 500, "INTERNAL", err.Error())
	}

	op := batchToJSON(done)
	if resp, ok := op["response"].(fiber.Map); ok {
		resp["results"] = report.ToMap()["results"]
	}
	return c.Status(200).JSON(op)
}

func (s *Server) getBatch(c *fiber.Ctx) error {
	b, err := s.store.GetBatch("operations/" + c.Params("id"))
	if err != nil {
		return errorResponse(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(batchToJSON(b))
}

func (s *Server) listBatches(c *fiber.Ctx) error {
	batches := s.store.ListBatches()

	items := make([]fiber.Map, len(batches))
	for i, b := range batches {
		items[i] = batchToJSON(b)
	}

	return c.JSON(fiber.Map{
		"operations": items,
	})
}

// --- Primes ---

func (s *Server) primes(c *fiber.Ctx) error {
	raw := c.Query("limit")
	if raw == "" {
		return errorResponse(c, 400, "INVALID_ARGUMENT", "limit query parameter is required")
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("limit must be an integer, got %q", raw))
	}
	if err := sieve.CheckLimit(limit); err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", err.Error())
	}

	primes := sieve.Primes(limit)
	if primes == nil {
		primes = []int{}
	}
	return c.JSON(fiber.Map{
		"limit":  limit,
		"count":  len(primes),
		"primes": primes,
	})
}

// --- Directory Loading ---

// LoadSuites runs every .yaml, .yml and .json suite file in dir as a batch.
// Files that cannot be read or parsed are skipped with a warning. A suite
// without a name is named after its file.
func (s *Server) LoadSuites(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading suites directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}

		suite, err := parser.Parse(data)
		if err != nil {
			log.Printf("Warning: could not parse %q: %v", name, err)
			continue
		}
		if suite.Name == "" {
			suite.Name = strings.TrimSuffix(name, ext)
		}

		batch := s.store.CreateBatch(suite.Name, string(data))
		report, err := s.engine.RunSuite(context.Background(), suite, batch.Name)
		if err != nil {
			log.Printf("Warning: suite %q did not finish: %v", suite.Name, err)
			continue
		}

		loaded++
		log.Printf("Ran suite %q from %s: %d passed, %d failed (%s)",
			suite.Name, name, report.Passed, report.Failed, batch.Name)
	}

	log.Printf("Ran %d suite(s) from %s", loaded, dir)
	return nil
}

// --- Helpers ---

func translationName(c *fiber.Ctx) string {
	return "translations/" + c.Params("id")
}

func errorResponse(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

// batchToJSON renders a batch as a long-running operation resource.
func batchToJSON(b *store.Batch) fiber.Map {
	result := fiber.Map{
		"name":     b.Name,
		"done":     b.Done(),
		"metadata": b.Metadata(),
	}
	if b.Error != "" {
		result["error"] = fiber.Map{
			"code":    2,
			"message": b.Error,
		}
		return result
	}

	result["response"] = fiber.Map(b.ToMap())
	return result
}
