// Package report orchestrates the full pipeline: resolve column roles once
// per batch, normalize and aggregate every row, backfill eligible months
// from contracts and expose the month audit. The whole pipeline is a pure
// function of its inputs; identical inputs always produce identical
// output, which callers rely on for caching.
package report

import (
	"sheets-report-service/internal/aggregator"
	"sheets-report-service/internal/audit"
	"sheets-report-service/internal/columns"
	"sheets-report-service/internal/models"
	"sheets-report-service/internal/projection"
	"sheets-report-service/pkg/errors"
	"sheets-report-service/pkg/logger"
)

// Request is one report build: the fetched row batch plus the caller-owned
// inputs that steer it.
type Request struct {
	Rows         []*models.Row
	Overrides    map[models.ColumnRole]string
	Contracts    []*models.Contract
	TargetMonths []models.MonthKey
	ZeroedMonths []models.MonthKey
}

// Report bundles the two reconciled views and the role map they were built
// with.
type Report struct {
	Summary   *models.MonthlySummary `json:"summary"`
	Breakdown *models.Breakdown      `json:"breakdown"`
	Roles     models.ColumnRoleMap   `json:"roles"`
}

// Service runs the pipeline.
type Service struct {
	resolver *columns.Resolver
	engine   *projection.Engine
	logger   logger.Logger
}

// NewService creates a report Service.
func NewService() *Service {
	return &Service{
		resolver: columns.NewResolver(),
		engine:   projection.NewEngine(),
		logger:   logger.GetGlobalLogger().WithComponent("report_service"),
	}
}

// BuildReport runs resolution, aggregation and projection over the batch.
// It returns either a complete report or a single descriptive error; there
// are no partial results.
func (s *Service) BuildReport(req *Request) (*Report, error) {
	if req == nil || len(req.Rows) == 0 {
		return nil, errors.EmptyBatch()
	}

	headers := req.Rows[0].Headers
	roles, err := s.resolver.Resolve(headers, req.Rows, req.Overrides)
	if err != nil {
		return nil, err
	}

	agg := aggregator.New(&aggregator.Config{ZeroedMonths: req.ZeroedMonths})
	summary, breakdown, err := agg.Aggregate(req.Rows, roles)
	if err != nil {
		return nil, err
	}

	if len(req.TargetMonths) > 0 && len(req.Contracts) > 0 {
		summary, err = s.engine.Project(req.TargetMonths, req.Contracts, summary)
		if err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logger.Fields{
		"months":  summary.MonthsProcessed,
		"rows":    len(req.Rows),
		"targets": len(req.TargetMonths),
	}).Info("Report built")

	return &Report{Summary: summary, Breakdown: breakdown, Roles: roles}, nil
}

// AuditMonth cross-validates one month of a built report.
func (s *Service) AuditMonth(rep *Report, month models.MonthKey) (*audit.MonthAudit, error) {
	if rep == nil || rep.Summary == nil || rep.Breakdown == nil {
		return nil, errors.New(errors.CategoryAudit, errors.CodeMonthNotFound, "no report available to audit")
	}
	return audit.AuditMonth(rep.Summary, rep.Breakdown, month)
}
