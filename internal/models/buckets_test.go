package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthlyBucketFinalizePercent(t *testing.T) {
	bucket := NewMonthlyBucket("2025-06")
	bucket.Add(NewProposalRecord("Acme", "Setup", "2025-06", "10/06/2025",
		amount("1000"), amount("900")))

	bucket.FinalizePercent()
	if !bucket.DifferencePercentAvg.Equal(amount("-10")) {
		t.Errorf("DifferencePercentAvg = %s, want -10", bucket.DifferencePercentAvg)
	}
}

func TestMonthlyBucketFinalizePercentZeroProposal(t *testing.T) {
	bucket := NewMonthlyBucket("2025-06")
	bucket.Add(NewProposalRecord("Acme", "Setup", "2025-06", "10/06/2025",
		decimal.Zero, amount("500")))

	bucket.FinalizePercent()
	if !bucket.DifferencePercentAvg.IsZero() {
		t.Errorf("DifferencePercentAvg = %s, want 0", bucket.DifferencePercentAvg)
	}
}

func TestMonthlyBucketHasRealTotals(t *testing.T) {
	bucket := NewMonthlyBucket("2025-06")
	if bucket.HasRealTotals() {
		t.Error("empty bucket should have no real totals")
	}

	// A proposal with no invoice still counts as real data.
	bucket.Add(NewProposalRecord("Acme", "Setup", "2025-06", "10/06/2025",
		amount("150"), decimal.Zero))
	if !bucket.HasRealTotals() {
		t.Error("bucket with nonzero proposal should have real totals")
	}
}

func TestSummaryCloneIsIndependent(t *testing.T) {
	summary := NewMonthlySummary()
	summary.Bucket("2025-06").Add(NewProposalRecord("Acme", "Setup", "2025-06", "10/06/2025",
		amount("1000"), amount("900")))
	summary.RecomputeGrandTotals()

	clone := summary.Clone()
	clone.Bucket("2025-07").Add(NewProposalRecord("Beta", "Setup", "2025-07", "10/07/2025",
		amount("200"), amount("200")))
	clone.RecomputeGrandTotals()

	if _, ok := summary.Months["2025-07"]; ok {
		t.Error("mutating the clone leaked into the original summary")
	}
	if !summary.GrandProposalTotal.Equal(amount("1000")) {
		t.Errorf("original grand total changed: %s", summary.GrandProposalTotal)
	}
}

func TestBreakdownAddReconcilesAllLevels(t *testing.T) {
	breakdown := NewBreakdown()
	breakdown.Add(NewProposalRecord("Acme", "Setup", "2025-06", "10/06/2025",
		amount("1000"), amount("900")))
	breakdown.Add(NewProposalRecord("Beta", "Setup", "2025-06", "12/06/2025",
		amount("500"), amount("500")))
	breakdown.Add(NewProposalRecord("Acme", "Mensalidade", "2025-06", "15/06/2025",
		amount("300"), amount("300")))

	month := breakdown.Months["2025-06"]
	if month == nil {
		t.Fatal("month bucket missing")
	}

	if !month.Totals.ProposalTotal.Equal(amount("1800")) {
		t.Errorf("month proposal total = %s, want 1800", month.Totals.ProposalTotal)
	}

	// Category totals must sum to the month total.
	var categorySum decimal.Decimal
	for _, name := range month.SortedCategories() {
		categorySum = categorySum.Add(month.Categories[name].Totals.ProposalTotal)
	}
	if !categorySum.Equal(month.Totals.ProposalTotal) {
		t.Errorf("category sum %s != month total %s", categorySum, month.Totals.ProposalTotal)
	}

	// Counterparty totals must sum to their category total.
	setup := month.Categories["Setup"]
	var counterpartySum decimal.Decimal
	for _, name := range setup.SortedCounterparties() {
		counterpartySum = counterpartySum.Add(setup.Counterparties[name].Totals.ProposalTotal)
	}
	if !counterpartySum.Equal(setup.Totals.ProposalTotal) {
		t.Errorf("counterparty sum %s != category total %s", counterpartySum, setup.Totals.ProposalTotal)
	}

	if got := len(month.LeafRecords()); got != 3 {
		t.Errorf("LeafRecords returned %d records, want 3", got)
	}
}
