package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/lfpl47/hiring-data-service/internal/api/dto"
	"github.com/lfpl47/hiring-data-service/internal/metrics"
	apperrors "github.com/lfpl47/hiring-data-service/pkg/util"
)

// MetricsHandler serves the hiring aggregate views.
type MetricsHandler struct {
	aggregator *metrics.Aggregator
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(aggregator *metrics.Aggregator) *MetricsHandler {
	return &MetricsHandler{aggregator: aggregator}
}

// HiredByQuarter GET /api/v1/metrics/hired_by_quarter.
func (h *MetricsHandler) HiredByQuarter(c *fiber.Ctx) error {
	year, err := yearQuery(c)
	if err != nil {
		return err
	}

	rows, err := h.aggregator.HiredByQuarter(c.UserContext(), year)
	if err != nil {
		return err
	}

	items := make([]dto.QuarterRowResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.QuarterRowResponse{
			Department: row.Department,
			Job:        row.Job,
			Q1:         row.Q1,
			Q2:         row.Q2,
			Q3:         row.Q3,
			Q4:         row.Q4,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// DepartmentsAboveMean GET /api/v1/metrics/departments_above_mean.
func (h *MetricsHandler) DepartmentsAboveMean(c *fiber.Ctx) error {
	year, err := yearQuery(c)
	if err != nil {
		return err
	}

	rows, err := h.aggregator.DepartmentsAboveMean(c.UserContext(), year)
	if err != nil {
		return err
	}

	items := make([]dto.DepartmentHiringResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.DepartmentHiringResponse{
			ID:         row.ID,
			Department: row.Department,
			Hired:      row.Hired,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func yearQuery(c *fiber.Ctx) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return metrics.DefaultYear, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return 0, apperrors.NewValidationError("invalid year", map[string]any{"year": raw})
	}
	return year, nil
}
