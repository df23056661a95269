package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lfpl47/hiring-data-service/internal/api/dto"
	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/service"
	apperrors "github.com/lfpl47/hiring-data-service/pkg/util"
)

// IngestHandler manages batch ingestion endpoints.
type IngestHandler struct {
	service *service.IngestService
}

// NewIngestHandler constructs handler.
func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{service: ingestService}
}

// IngestAll POST /api/v1/ingest. Processes provided lists in referential
// dependency order so departments and jobs committed here are valid targets
// for the hired employees of the same request.
func (h *IngestHandler) IngestAll(c *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	batches := map[domain.EntityKind][]domain.RawRecord{
		domain.KindDepartment:    req.Departments,
		domain.KindJob:           req.Jobs,
		domain.KindHiredEmployee: req.HiredEmployees,
	}

	provided := 0
	for _, kind := range domain.Kinds() {
		if batches[kind] != nil {
			provided++
		}
	}
	if provided == 0 {
		return apperrors.NewValidationError("no records provided", nil)
	}

	results := make([]dto.IngestSummaryResponse, 0, provided)
	for _, kind := range domain.Kinds() {
		batch := batches[kind]
		if batch == nil {
			continue
		}
		result, err := h.service.IngestBatch(c.UserContext(), kind, batch)
		if err != nil {
			return err
		}
		results = append(results, summaryResponse(result))
	}
	return c.JSON(fiber.Map{"data": results})
}

// IngestTable POST /api/v1/ingest/:table.
func (h *IngestHandler) IngestTable(c *fiber.Ctx) error {
	kind, err := domain.ParseEntityKind(c.Params("table"))
	if err != nil {
		return apperrors.NewNotFound("table", map[string]any{"table": c.Params("table")})
	}

	var req dto.TableIngestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.IngestBatch(c.UserContext(), kind, req.Records)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaryResponse(result)})
}

func summaryResponse(result service.RunResult) dto.IngestSummaryResponse {
	return dto.IngestSummaryResponse{
		RunID:    result.RunID,
		Table:    string(result.Summary.Table),
		Accepted: result.Summary.Accepted,
		Rejected: result.Summary.Rejected,
		Report:   result.ReportPath,
		Errors:   result.Summary.Entries,
	}
}
