package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crptapi/internal/database"
	"crptapi/internal/logging"
	"crptapi/internal/model"
	"crptapi/internal/service"
)

const (
	healthTimeout     = 2 * time.Second
	payloadURLExpiry  = 15 * time.Minute
	defaultPageLimit  = "10"
	defaultPageOffset = "0"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db database.Pinger, svc service.SubmissionService, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/documents", SubmitDocument(svc))
	app.Post("/documents/sample", SubmitSample(svc))
	app.Get("/documents", ListSubmissions(svc))
	app.Get("/documents/:id", GetSubmission(svc))
	app.Get("/documents/:id/payload", GetPayload(svc))
	app.Get("/documents/:id/payload-url", GetPayloadURL(svc))
}

// HealthCheck reports readiness based on database connectivity.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db database.Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// SubmitDocument creates a document upstream.
// @Summary Create an introduce-goods document in CRPT
// @Tags documents
// @Accept json
// @Produce json
// @Param document body model.Document true "Document"
// @Success 202 {object} model.Submission
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /documents [post]
func SubmitDocument(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var doc model.Document
		if err := c.BodyParser(&doc); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON document")
		}
		return submit(c, svc, &doc)
	}
}

// SubmitSample creates the built-in sample document upstream.
// @Summary Submit the sample document
// @Tags documents
// @Produce json
// @Success 202 {object} model.Submission
// @Failure 502 {object} errorPayload
// @Router /documents/sample [post]
func SubmitSample(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return submit(c, svc, model.SampleDocument())
	}
}

func submit(c *fiber.Ctx, svc service.SubmissionService, doc *model.Document) error {
	sub, err := svc.Submit(c.UserContext(), doc)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidDocument), errors.Is(err, service.ErrDocumentNil):
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		case errors.Is(err, service.ErrUpstream):
			return c.Status(fiber.StatusBadGateway).JSON(errorPayload{
				RequestID:  requestIDFromCtx(c),
				Error:      errorEnvelope{Code: "UPSTREAM_ERROR", Message: "document was not accepted upstream"},
				Submission: sub,
			})
		default:
			logging.LogError(logging.FromContext(c.UserContext()), "submit_document_failed", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
	return c.Status(fiber.StatusAccepted).JSON(sub)
}

// ListSubmissions returns recorded submissions, newest first.
// @Summary List submissions
// @Tags documents
// @Produce json
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.SubmissionListResult
// @Failure 400 {object} errorPayload
// @Router /documents [get]
func ListSubmissions(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", defaultPageLimit))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", defaultPageOffset))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetSubmission returns one submission.
// @Summary Get a submission
// @Tags documents
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} model.Submission
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetSubmission(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		sub, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return lookupError(c, err)
		}
		return c.JSON(sub)
	}
}

// GetPayload streams the archived JSON that was sent upstream.
// @Summary Download the archived payload
// @Tags documents
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/payload [get]
func GetPayload(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, err := svc.Payload(c.UserContext(), id)
		if err != nil {
			return lookupError(c, err)
		}
		size := int(info.Size)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes rc once the body has been written
		c.Type("json")
		return c.SendStream(rc, size)
	}
}

// GetPayloadURL returns a pre-signed link to the archived payload.
// @Summary Pre-signed payload URL
// @Tags documents
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorPayload
// @Router /documents/{id}/payload-url [get]
func GetPayloadURL(svc service.SubmissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.PayloadURL(c.UserContext(), id, payloadURLExpiry)
		if err != nil {
			return lookupError(c, err)
		}
		return c.JSON(fiber.Map{"url": u, "expires_in": int(payloadURLExpiry.Seconds())})
	}
}

func parseID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func lookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "submission not found")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
