// Package projection synthesizes placeholder monthly buckets from contract
// terms for months that have no real data. A projection assumes every
// active contract bills its installment value, so proposal and invoice
// totals are equal and the difference is zero.
package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"sheets-report-service/internal/models"
	"sheets-report-service/internal/normalize"
	"sheets-report-service/pkg/logger"
)

// contractTypeAliases maps contract sheet types onto report categories.
// Unknown types pass through unchanged.
var contractTypeAliases = map[string]string{
	"Implantação": "Setup",
	"Mensalidade": "Mensalidade",
}

// Engine fills report gaps from the contract list.
type Engine struct {
	logger logger.Logger
}

// NewEngine creates a projection Engine.
func NewEngine() *Engine {
	return &Engine{logger: logger.GetGlobalLogger().WithComponent("projection_engine")}
}

// Eligible reports whether a month may receive projections: it must be
// absent from the flat view, or present with both totals at zero. A month
// holding any nonzero real total is never projected, which makes repeated
// projection runs idempotent.
func Eligible(summary *models.MonthlySummary, month models.MonthKey) bool {
	bucket, ok := summary.Months[month]
	if !ok {
		return true
	}
	return !bucket.HasRealTotals()
}

// Project returns a new summary with projection buckets merged in for every
// eligible target month. The input summary is not mutated. Contracts with
// missing or unparseable fields, or whose date range excludes the target
// month, are skipped as logged decisions, never as errors.
func (e *Engine) Project(targets []models.MonthKey, contracts []*models.Contract, summary *models.MonthlySummary) (*models.MonthlySummary, error) {
	merged := summary.Clone()
	if len(targets) == 0 || len(contracts) == 0 {
		return merged, nil
	}

	for _, month := range targets {
		if !Eligible(merged, month) {
			e.logger.WithField("month", string(month)).Debug("Month has real data, skipping projection")
			continue
		}
		firstOfMonth, err := month.FirstOfMonth()
		if err != nil {
			e.logger.WithField("month", string(month)).Warn("Ignoring invalid projection target month")
			continue
		}

		var records []*models.ProjectionRecord
		total := decimal.Zero
		for _, contract := range contracts {
			rec, ok := e.projectContract(contract, firstOfMonth)
			if !ok {
				continue
			}
			records = append(records, rec)
			total = total.Add(rec.Value)
		}
		if len(records) == 0 {
			continue
		}

		bucket := models.NewMonthlyBucket(month)
		bucket.ProposalTotal = total
		bucket.InvoiceTotal = total
		bucket.DifferenceTotal = decimal.Zero
		bucket.RecordCount = len(records)
		bucket.IsProjection = true
		bucket.Projections = records
		merged.Months[month] = bucket

		e.logger.WithFields(logger.Fields{
			"month":     string(month),
			"contracts": len(records),
			"total":     total.String(),
		}).Info("Projected month from contracts")
	}

	merged.RecomputeGrandTotals()
	return merged, nil
}

// projectContract evaluates one contract against one target month. All
// five fields must be present and parseable and the month's first day must
// fall within [start, end] inclusive.
func (e *Engine) projectContract(contract *models.Contract, firstOfMonth time.Time) (*models.ProjectionRecord, bool) {
	if !contract.Complete() {
		e.logger.WithField("contract", contract.String()).Debug("Contract skipped: missing required fields")
		return nil, false
	}

	value := normalize.ParseAmount(contract.InstallmentValue)
	if value.IsZero() {
		e.logger.WithField("contract", contract.String()).Debug("Contract skipped: installment value did not parse")
		return nil, false
	}

	start, okStart := normalize.ParseContractDate(contract.StartDate)
	end, okEnd := normalize.ParseContractDate(contract.EndDate)
	if !okStart || !okEnd {
		e.logger.WithField("contract", contract.String()).Debug("Contract skipped: unparseable date range")
		return nil, false
	}

	if firstOfMonth.Before(start) || firstOfMonth.After(end) {
		return nil, false
	}

	contractType := contract.ContractType
	if alias, ok := contractTypeAliases[contractType]; ok {
		contractType = alias
	}
	return models.NewProjectionRecord(contract.ProposalID, value, contractType), true
}
