package audit

import (
	"testing"

	"github.com/shopspring/decimal"

	"sheets-report-service/internal/models"
	"sheets-report-service/pkg/errors"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func record(counterparty, category, rawDate, proposal, invoice string) *models.ProposalRecord {
	return models.NewProposalRecord(counterparty, category, "2025-06", rawDate,
		amount(proposal), amount(invoice))
}

func buildViews(records ...*models.ProposalRecord) (*models.MonthlySummary, *models.Breakdown) {
	summary := models.NewMonthlySummary()
	breakdown := models.NewBreakdown()
	for _, rec := range records {
		summary.Bucket(rec.Month).Add(rec)
		breakdown.Add(rec)
	}
	summary.RecomputeGrandTotals()
	return summary, breakdown
}

func TestAuditBalancedMonth(t *testing.T) {
	summary, breakdown := buildViews(
		record("Acme", "Setup", "10/06/2025", "1000", "900"),
		record("Beta", "Mensalidade", "20/06/2025", "500.50", "500.50"),
	)

	result, err := AuditMonth(summary, breakdown, "2025-06")
	if err != nil {
		t.Fatalf("AuditMonth failed: %v", err)
	}

	if !result.Balanced {
		t.Errorf("expected balanced month, deltas: proposal=%s invoice=%s",
			result.ProposalDelta, result.InvoiceDelta)
	}
	if result.LeafCount != 2 {
		t.Errorf("leaf count = %d, want 2", result.LeafCount)
	}
	if !result.FlatProposal.Equal(amount("1500.50")) {
		t.Errorf("flat proposal = %s, want 1500.50", result.FlatProposal)
	}
	if !result.LeafProposal.Equal(result.FlatProposal) {
		t.Errorf("leaf proposal %s != flat proposal %s", result.LeafProposal, result.FlatProposal)
	}
}

func TestAuditDetectsTamperedLeaf(t *testing.T) {
	summary, breakdown := buildViews(
		record("Acme", "Setup", "10/06/2025", "1000", "1000"),
	)

	// Corrupt the hierarchical view only.
	leaf := breakdown.Months["2025-06"].LeafRecords()[0]
	leaf.ProposalValue = amount("900")

	result, err := AuditMonth(summary, breakdown, "2025-06")
	if err != nil {
		t.Fatalf("AuditMonth failed: %v", err)
	}

	if result.Balanced {
		t.Error("expected tampered month to be unbalanced")
	}
	if !result.ProposalDelta.Equal(amount("100")) {
		t.Errorf("proposal delta = %s, want 100 (flat minus leaf)", result.ProposalDelta)
	}
	if !result.InvoiceDelta.IsZero() {
		t.Errorf("invoice delta = %s, want 0", result.InvoiceDelta)
	}
}

func TestAuditWithinTolerance(t *testing.T) {
	summary, breakdown := buildViews(
		record("Acme", "Setup", "10/06/2025", "1000", "1000"),
	)

	leaf := breakdown.Months["2025-06"].LeafRecords()[0]
	leaf.ProposalValue = amount("999.995")

	result, err := AuditMonth(summary, breakdown, "2025-06")
	if err != nil {
		t.Fatalf("AuditMonth failed: %v", err)
	}

	if !result.Balanced {
		t.Errorf("drift %s within tolerance should stay balanced", result.ProposalDelta)
	}
}

func TestAuditFlagsInvoiceWithoutProposal(t *testing.T) {
	summary, breakdown := buildViews(
		record("Acme", "Setup", "10/06/2025", "0", "500"),
	)

	result, err := AuditMonth(summary, breakdown, "2025-06")
	if err != nil {
		t.Fatalf("AuditMonth failed: %v", err)
	}

	if !hasFlag(result, FlagInvoiceWithoutProposal) {
		t.Error("expected invoice_without_proposal flag")
	}
	// Billed above a zero proposal also exceeds it.
	if !hasFlag(result, FlagInvoiceOverProposal) {
		t.Error("expected invoice_over_proposal flag")
	}
}

func TestAuditFlagsInvoiceOverProposal(t *testing.T) {
	summary, breakdown := buildViews(
		record("Acme", "Setup", "10/06/2025", "100", "150"),
	)

	result, err := AuditMonth(summary, breakdown, "2025-06")
	if err != nil {
		t.Fatalf("AuditMonth failed: %v", err)
	}

	if !hasFlag(result, FlagInvoiceOverProposal) {
		t.Fatal("expected invoice_over_proposal flag")
	}
	for _, flag := range result.Flags {
		if flag.Kind == FlagInvoiceOverProposal && !flag.Delta.Equal(amount("50")) {
			t.Errorf("flag delta = %s, want 50", flag.Delta)
		}
	}
}

func TestAuditFlagsMisgroupedDate(t *testing.T) {
	rec := record("Acme", "Setup", "10/07/2025", "100", "100")
	rec.Month = "2025-06" // grouped under a month the date does not match
	summary, breakdown := buildViews(rec)

	result, err := AuditMonth(summary, breakdown, "2025-06")
	if err != nil {
		t.Fatalf("AuditMonth failed: %v", err)
	}

	if !hasFlag(result, FlagMisgroupedDate) {
		t.Error("expected misgrouped_date flag")
	}
}

func TestAuditMonthNotFound(t *testing.T) {
	summary, breakdown := buildViews(
		record("Acme", "Setup", "10/06/2025", "100", "100"),
	)

	_, err := AuditMonth(summary, breakdown, "2030-01")
	if err == nil {
		t.Fatal("expected error for absent month")
	}

	reportErr, ok := errors.AsReportError(err)
	if !ok {
		t.Fatalf("expected *ReportError, got %T", err)
	}
	if reportErr.Code != errors.CodeMonthNotFound {
		t.Errorf("error code = %s, want %s", reportErr.Code, errors.CodeMonthNotFound)
	}
}

func TestAuditProjectionOnlyMonth(t *testing.T) {
	summary := models.NewMonthlySummary()
	bucket := summary.Bucket("2025-09")
	bucket.ProposalTotal = amount("1500")
	bucket.InvoiceTotal = amount("1500")
	bucket.IsProjection = true
	summary.RecomputeGrandTotals()

	result, err := AuditMonth(summary, models.NewBreakdown(), "2025-09")
	if err != nil {
		t.Fatalf("AuditMonth failed: %v", err)
	}

	if result.LeafCount != 0 {
		t.Errorf("leaf count = %d, want 0 for projection-only month", result.LeafCount)
	}
	if !result.FlatProposal.Equal(amount("1500")) {
		t.Errorf("flat proposal = %s, want 1500", result.FlatProposal)
	}
	if result.Balanced {
		t.Error("projection-only month compares against an empty leaf set")
	}
}

func hasFlag(result *MonthAudit, kind FlagKind) bool {
	for _, flag := range result.Flags {
		if flag.Kind == kind {
			return true
		}
	}
	return false
}
