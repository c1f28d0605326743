// Package audit cross-validates the two aggregate views for a single
// month: it re-derives totals from the hierarchical view's leaf records,
// compares them to the flat bucket and flags records that look suspicious.
// The audit is read-only; it never mutates either view.
package audit

import (
	"github.com/shopspring/decimal"

	"sheets-report-service/internal/models"
	"sheets-report-service/internal/normalize"
	"sheets-report-service/pkg/errors"
)

// Tolerance absorbs the drift allowed between the two views before a month
// is reported as unbalanced.
var Tolerance = decimal.RequireFromString("0.01")

// FlagKind classifies a suspicious record.
type FlagKind string

const (
	// FlagInvoiceWithoutProposal marks records billed with no proposal value.
	FlagInvoiceWithoutProposal FlagKind = "invoice_without_proposal"
	// FlagInvoiceOverProposal marks records billed above their proposal.
	FlagInvoiceOverProposal FlagKind = "invoice_over_proposal"
	// FlagMisgroupedDate marks records whose raw date re-normalizes to a
	// different month than the bucket holding them.
	FlagMisgroupedDate FlagKind = "misgrouped_date"
)

// RecordFlag is one suspicious record with the reason it was flagged.
type RecordFlag struct {
	Kind   FlagKind               `json:"kind"`
	Record *models.ProposalRecord `json:"record"`
	Delta  decimal.Decimal        `json:"delta"`
	Detail string                 `json:"detail,omitempty"`
}

// MonthAudit is the result of cross-validating one month.
type MonthAudit struct {
	Month         models.MonthKey `json:"month"`
	FlatProposal  decimal.Decimal `json:"flat_proposal"`
	FlatInvoice   decimal.Decimal `json:"flat_invoice"`
	LeafProposal  decimal.Decimal `json:"leaf_proposal"`
	LeafInvoice   decimal.Decimal `json:"leaf_invoice"`
	ProposalDelta decimal.Decimal `json:"proposal_delta"`
	InvoiceDelta  decimal.Decimal `json:"invoice_delta"`
	Balanced      bool            `json:"balanced"`
	LeafCount     int             `json:"leaf_count"`
	Flags         []RecordFlag    `json:"flags,omitempty"`
}

// AuditMonth walks the breakdown's leaf records for the month, compares
// their sums against the flat bucket and collects record flags. The deltas
// are signed as flat minus leaf. Projection-only months audit against an
// empty leaf set and report the projection totals as the flat side.
func AuditMonth(summary *models.MonthlySummary, breakdown *models.Breakdown, month models.MonthKey) (*MonthAudit, error) {
	flatBucket, flatOK := summary.Months[month]
	monthBucket, nestedOK := breakdown.Months[month]
	if !flatOK && !nestedOK {
		return nil, errors.MonthNotFound(string(month))
	}

	result := &MonthAudit{
		Month:         month,
		FlatProposal:  decimal.Zero,
		FlatInvoice:   decimal.Zero,
		LeafProposal:  decimal.Zero,
		LeafInvoice:   decimal.Zero,
		ProposalDelta: decimal.Zero,
		InvoiceDelta:  decimal.Zero,
	}
	if flatOK {
		result.FlatProposal = flatBucket.ProposalTotal
		result.FlatInvoice = flatBucket.InvoiceTotal
	}

	var leaves []*models.ProposalRecord
	if nestedOK {
		leaves = monthBucket.LeafRecords()
	}
	for _, rec := range leaves {
		result.LeafProposal = result.LeafProposal.Add(rec.ProposalValue)
		result.LeafInvoice = result.LeafInvoice.Add(rec.InvoiceValue)
		result.Flags = append(result.Flags, flagRecord(rec, month)...)
	}
	result.LeafCount = len(leaves)

	result.ProposalDelta = result.FlatProposal.Sub(result.LeafProposal)
	result.InvoiceDelta = result.FlatInvoice.Sub(result.LeafInvoice)
	result.Balanced = result.ProposalDelta.Abs().LessThanOrEqual(Tolerance) &&
		result.InvoiceDelta.Abs().LessThanOrEqual(Tolerance)

	return result, nil
}

func flagRecord(rec *models.ProposalRecord, month models.MonthKey) []RecordFlag {
	var flags []RecordFlag

	if rec.InvoiceValue.GreaterThan(decimal.Zero) && rec.ProposalValue.IsZero() {
		flags = append(flags, RecordFlag{
			Kind:   FlagInvoiceWithoutProposal,
			Record: rec,
			Delta:  rec.InvoiceValue,
			Detail: "invoiced with no proposal value",
		})
	}

	if rec.InvoiceValue.GreaterThan(rec.ProposalValue) {
		flags = append(flags, RecordFlag{
			Kind:   FlagInvoiceOverProposal,
			Record: rec,
			Delta:  rec.InvoiceValue.Sub(rec.ProposalValue),
			Detail: "invoice exceeds proposal",
		})
	}

	if key, ok := normalize.ParseMonthKey(rec.RawDate); ok && key != month {
		flags = append(flags, RecordFlag{
			Kind:   FlagMisgroupedDate,
			Record: rec,
			Delta:  decimal.Zero,
			Detail: "raw date normalizes to " + string(key),
		})
	}

	return flags
}
