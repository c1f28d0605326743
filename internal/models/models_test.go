package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMonthKeyValid(t *testing.T) {
	tests := []struct {
		key   MonthKey
		valid bool
	}{
		{"2025-06", true},
		{"2025-01", true},
		{"2025-12", true},
		{"2025-13", false},
		{"2025-00", false},
		{"2025-6", false},
		{"25-06", false},
		{"2025/06", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.key.Valid(); got != tt.valid {
			t.Errorf("MonthKey(%q).Valid() = %v, want %v", tt.key, got, tt.valid)
		}
	}
}

func TestMonthKeyOrderingIsChronological(t *testing.T) {
	keys := []MonthKey{"2024-12", "2025-01", "2025-02", "2025-10", "2026-01"}
	for i := 1; i < len(keys); i++ {
		if !(keys[i-1] < keys[i]) {
			t.Errorf("expected %s < %s", keys[i-1], keys[i])
		}
	}
}

func TestMonthKeyFirstOfMonth(t *testing.T) {
	got, err := MonthKey("2025-06").FirstOfMonth()
	if err != nil {
		t.Fatalf("FirstOfMonth failed: %v", err)
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FirstOfMonth = %v, want %v", got, want)
	}

	if _, err := MonthKey("garbage").FirstOfMonth(); err == nil {
		t.Error("expected error for invalid key")
	}
}

func TestNextMonths(t *testing.T) {
	from := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	got := NextMonths(from, 3)
	want := []MonthKey{"2025-12", "2026-01", "2026-02"}

	if len(got) != len(want) {
		t.Fatalf("NextMonths returned %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NextMonths[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNewProposalRecordDerivesDifference(t *testing.T) {
	rec := NewProposalRecord("Acme", "Setup", "2025-06", "10/06/2025",
		decimal.RequireFromString("1000"), decimal.RequireFromString("900"))

	if !rec.Difference.Equal(decimal.RequireFromString("-100")) {
		t.Errorf("Difference = %s, want -100", rec.Difference)
	}
	if !rec.DifferencePercent.Equal(decimal.RequireFromString("-10")) {
		t.Errorf("DifferencePercent = %s, want -10", rec.DifferencePercent)
	}
}

func TestNewProposalRecordZeroProposal(t *testing.T) {
	rec := NewProposalRecord("Acme", "Setup", "2025-06", "10/06/2025",
		decimal.Zero, decimal.RequireFromString("500"))

	if !rec.DifferencePercent.IsZero() {
		t.Errorf("DifferencePercent = %s, want 0 for zero proposal", rec.DifferencePercent)
	}
}

func TestContractComplete(t *testing.T) {
	complete := &Contract{
		ProposalID:       "P-001",
		InstallmentValue: "1.000,00",
		StartDate:        "01/01/2025",
		EndDate:          "31/12/2025",
		ContractType:     "Mensalidade",
	}
	if !complete.Complete() {
		t.Error("expected contract with all fields to be complete")
	}

	missing := &Contract{
		ProposalID:       "P-002",
		InstallmentValue: "500,00",
		StartDate:        "01/01/2025",
		ContractType:     "Setup",
	}
	if missing.Complete() {
		t.Error("expected contract without end date to be incomplete")
	}

	blank := &Contract{
		ProposalID:       "P-003",
		InstallmentValue: "  ",
		StartDate:        "01/01/2025",
		EndDate:          "31/12/2025",
		ContractType:     "Setup",
	}
	if blank.Complete() {
		t.Error("expected contract with blank installment to be incomplete")
	}
}

func TestRowGetTrims(t *testing.T) {
	row := NewRow([]string{"A"}, map[string]string{"A": "  value  "}, 0)
	if got := row.Get("A"); got != "value" {
		t.Errorf("Get = %q, want %q", got, "value")
	}
	if got := row.Get("missing"); got != "" {
		t.Errorf("Get for missing header = %q, want empty", got)
	}
}

func TestRowIsEmpty(t *testing.T) {
	empty := NewRow([]string{"A", "B"}, map[string]string{"A": " ", "B": ""}, 0)
	if !empty.IsEmpty() {
		t.Error("expected row with only blanks to be empty")
	}

	filled := NewRow([]string{"A"}, map[string]string{"A": "x"}, 0)
	if filled.IsEmpty() {
		t.Error("expected row with content to be non-empty")
	}
}
