// Package aggregator consumes normalized spreadsheet rows and builds the
// two reconciled views of the report: the flat per-month summary and the
// month → category → counterparty → record breakdown. Both views are
// updated atomically per row, so for every month the hierarchical totals
// reconcile with the flat totals by construction.
package aggregator

import (
	"sheets-report-service/internal/models"
	"sheets-report-service/internal/normalize"
	"sheets-report-service/pkg/errors"
	"sheets-report-service/pkg/logger"
)

// Category labels produced by the synonym table. Everything that is not a
// known synonym passes through untouched; rows without a category column
// land in CategoryOther.
const (
	CategorySetup   = "Setup"
	CategoryMonthly = "Mensalidade"
	CategoryOther   = "Outros"
)

// categorySynonyms canonicalizes the type column's spelling variants.
var categorySynonyms = map[string]string{
	"setup":        CategorySetup,
	"set up":       CategorySetup,
	"set-up":       CategorySetup,
	"configuracao": CategorySetup,
	"config":       CategorySetup,
	"mensalidade":  CategoryMonthly,
	"mensal":       CategoryMonthly,
	"monthly":      CategoryMonthly,
}

// Config carries the aggregation options.
type Config struct {
	// ZeroedMonths lists months whose totals are forced to zero after
	// aggregation. This replaces a sheet-specific patch that used to be
	// hardcoded for one historical month; it must be opted into per run.
	ZeroedMonths []models.MonthKey
}

// DefaultConfig returns a Config with no month patches.
func DefaultConfig() *Config {
	return &Config{}
}

// Aggregator builds both aggregate views from a row batch.
type Aggregator struct {
	config *Config
	logger logger.Logger
}

// New creates an Aggregator.
func New(config *Config) *Aggregator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Aggregator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("aggregator"),
	}
}

// Aggregate runs the per-row pipeline over the batch. Rows whose date cell
// yields no month key are excluded silently; a missing value cell never
// excludes a row, it just contributes zero. The returned views are rebuilt
// from scratch on every call and sorted by month key.
func (a *Aggregator) Aggregate(rows []*models.Row, roles models.ColumnRoleMap) (*models.MonthlySummary, *models.Breakdown, error) {
	if len(rows) == 0 {
		return nil, nil, errors.EmptyBatch()
	}

	summary := models.NewMonthlySummary()
	breakdown := models.NewBreakdown()

	dateHeader := roles.Header(models.RoleDate)
	proposalHeader := roles.Header(models.RoleProposal)
	invoiceHeader := roles.Header(models.RoleInvoice)
	categoryHeader := roles.Header(models.RoleCategory)
	counterpartyHeader := roles.Header(models.RoleCounterparty)

	skipped := 0
	for _, row := range rows {
		rawDate := row.Get(dateHeader)
		month, ok := normalize.ParseMonthKey(rawDate)
		if !ok {
			skipped++
			continue
		}

		proposal := normalize.ParseAmount(row.Get(proposalHeader))
		invoice := normalize.ParseAmount(row.Get(invoiceHeader))

		category := CanonicalCategory(row.Get(categoryHeader))
		counterparty := row.Get(counterpartyHeader)

		rec := models.NewProposalRecord(counterparty, category, month, rawDate, proposal, invoice)
		rec.RowIndex = row.Index
		rec.Aux = auxCells(row, roles)

		// Both views take the row in the same step; partial application
		// would break the cross-view invariant.
		summary.Bucket(month).Add(rec)
		breakdown.Add(rec)
	}

	for _, month := range a.config.ZeroedMonths {
		if bucket, ok := summary.Months[month]; ok {
			a.logger.WithField("month", string(month)).Info("Applying configured zero-override to month totals")
			bucket.Zero()
		}
	}

	for _, key := range summary.SortedKeys() {
		summary.Months[key].FinalizePercent()
	}
	summary.RecomputeGrandTotals()

	a.logger.WithFields(logger.Fields{
		"rows":         len(rows),
		"skipped_rows": skipped,
		"months":       summary.MonthsProcessed,
	}).Info("Aggregation complete")

	return summary, breakdown, nil
}

// CanonicalCategory maps the raw type cell to its canonical label.
func CanonicalCategory(raw string) string {
	if raw == "" {
		return CategoryOther
	}
	if canonical, ok := categorySynonyms[normalize.Fold(raw)]; ok {
		return canonical
	}
	return raw
}

// auxCells keeps the raw values of columns not claimed by any role, for
// display next to the extracted fields.
func auxCells(row *models.Row, roles models.ColumnRoleMap) map[string]string {
	claimed := make(map[string]bool, len(roles))
	for _, header := range roles {
		if header != "" {
			claimed[header] = true
		}
	}

	var aux map[string]string
	for _, header := range row.Headers {
		if claimed[header] {
			continue
		}
		if value := row.Get(header); value != "" {
			if aux == nil {
				aux = make(map[string]string)
			}
			aux[header] = value
		}
	}
	return aux
}
