package aggregator

import (
	"testing"

	"github.com/shopspring/decimal"

	"sheets-report-service/internal/models"
	"sheets-report-service/pkg/errors"
)

var testHeaders = []string{"Data", "Proposta", "Boleto", "Tipo", "Empresa"}

var testRoles = models.ColumnRoleMap{
	models.RoleDate:         "Data",
	models.RoleProposal:     "Proposta",
	models.RoleInvoice:      "Boleto",
	models.RoleCategory:     "Tipo",
	models.RoleCounterparty: "Empresa",
}

func makeRows(data [][]string) []*models.Row {
	rows := make([]*models.Row, 0, len(data))
	for i, record := range data {
		cells := make(map[string]string, len(testHeaders))
		for j, header := range testHeaders {
			if j < len(record) {
				cells[header] = record[j]
			}
		}
		rows = append(rows, models.NewRow(testHeaders, cells, i))
	}
	return rows
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregateGroupsByMonth(t *testing.T) {
	rows := makeRows([][]string{
		{"10/06/2025", "1.000,00", "900,00", "Setup", "Acme"},
		{"20/06/2025", "500,50", "500,50", "Mensalidade", "Beta"},
		{"05/07/2025", "300,00", "300,00", "Mensalidade", "Acme"},
	})

	agg := New(nil)
	summary, breakdown, err := agg.Aggregate(rows, testRoles)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	june := summary.Months["2025-06"]
	if june == nil {
		t.Fatal("2025-06 bucket missing")
	}
	if !june.ProposalTotal.Equal(amount("1500.50")) {
		t.Errorf("june proposal total = %s, want 1500.50", june.ProposalTotal)
	}
	if !june.InvoiceTotal.Equal(amount("1400.50")) {
		t.Errorf("june invoice total = %s, want 1400.50", june.InvoiceTotal)
	}
	if !june.DifferenceTotal.Equal(amount("-100")) {
		t.Errorf("june difference total = %s, want -100", june.DifferenceTotal)
	}
	if june.RecordCount != 2 {
		t.Errorf("june record count = %d, want 2", june.RecordCount)
	}

	if summary.MonthsProcessed != 2 {
		t.Errorf("months processed = %d, want 2", summary.MonthsProcessed)
	}

	if breakdown.Months["2025-06"] == nil || breakdown.Months["2025-07"] == nil {
		t.Error("breakdown missing a month present in the summary")
	}
}

func TestAggregateViewsReconcile(t *testing.T) {
	rows := makeRows([][]string{
		{"10/06/2025", "1.000,00", "900,00", "Setup", "Acme"},
		{"20/06/2025", "500,50", "500,50", "Mensalidade", "Beta"},
		{"25/06/2025", "", "250,00", "", ""},
	})

	agg := New(nil)
	summary, breakdown, err := agg.Aggregate(rows, testRoles)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	flat := summary.Months["2025-06"]
	nested := breakdown.Months["2025-06"]

	if !flat.ProposalTotal.Equal(nested.Totals.ProposalTotal) {
		t.Errorf("flat proposal %s != nested proposal %s",
			flat.ProposalTotal, nested.Totals.ProposalTotal)
	}
	if !flat.InvoiceTotal.Equal(nested.Totals.InvoiceTotal) {
		t.Errorf("flat invoice %s != nested invoice %s",
			flat.InvoiceTotal, nested.Totals.InvoiceTotal)
	}
	if flat.RecordCount != nested.Totals.RecordCount {
		t.Errorf("flat count %d != nested count %d",
			flat.RecordCount, nested.Totals.RecordCount)
	}
}

func TestAggregateSkipsUnparseableDates(t *testing.T) {
	rows := makeRows([][]string{
		{"10/06/2025", "100,00", "100,00", "Setup", "Acme"},
		{"pendente", "999,00", "999,00", "Setup", "Acme"},
		{"", "999,00", "999,00", "Setup", "Acme"},
	})

	agg := New(nil)
	summary, _, err := agg.Aggregate(rows, testRoles)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if summary.MonthsProcessed != 1 {
		t.Errorf("months processed = %d, want 1", summary.MonthsProcessed)
	}
	if !summary.GrandProposalTotal.Equal(amount("100")) {
		t.Errorf("grand proposal total = %s, want 100", summary.GrandProposalTotal)
	}
}

func TestAggregateMissingValueContributesZero(t *testing.T) {
	rows := makeRows([][]string{
		{"10/06/2025", "Por Consumo", "750,00", "Mensalidade", "Acme"},
	})

	agg := New(nil)
	summary, _, err := agg.Aggregate(rows, testRoles)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	june := summary.Months["2025-06"]
	if !june.ProposalTotal.IsZero() {
		t.Errorf("proposal total = %s, want 0", june.ProposalTotal)
	}
	if !june.InvoiceTotal.Equal(amount("750")) {
		t.Errorf("invoice total = %s, want 750", june.InvoiceTotal)
	}
	if june.RecordCount != 1 {
		t.Errorf("record count = %d, want 1: a blank value never drops the row", june.RecordCount)
	}
}

func TestAggregateZeroedMonths(t *testing.T) {
	rows := makeRows([][]string{
		{"10/06/2025", "1.000,00", "900,00", "Setup", "Acme"},
		{"10/07/2025", "200,00", "200,00", "Setup", "Acme"},
	})

	agg := New(&Config{ZeroedMonths: []models.MonthKey{"2025-06"}})
	summary, _, err := agg.Aggregate(rows, testRoles)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	june := summary.Months["2025-06"]
	if !june.ProposalTotal.IsZero() || !june.InvoiceTotal.IsZero() {
		t.Errorf("zeroed month kept totals: proposal=%s invoice=%s",
			june.ProposalTotal, june.InvoiceTotal)
	}
	if june.RecordCount != 1 {
		t.Errorf("zeroing dropped records: count = %d", june.RecordCount)
	}
	if !summary.GrandProposalTotal.Equal(amount("200")) {
		t.Errorf("grand proposal total = %s, want 200", summary.GrandProposalTotal)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	rows := makeRows([][]string{
		{"10/06/2025", "3.916,29", "3.916,29", "Mensalidade", "Acme"},
		{"20/06/2025", "1.234,56", "1.000,00", "Setup", "Beta"},
	})

	agg := New(nil)
	first, _, err := agg.Aggregate(rows, testRoles)
	if err != nil {
		t.Fatalf("first Aggregate failed: %v", err)
	}
	second, _, err := agg.Aggregate(rows, testRoles)
	if err != nil {
		t.Fatalf("second Aggregate failed: %v", err)
	}

	if first.GrandProposalTotal.String() != second.GrandProposalTotal.String() {
		t.Errorf("grand proposal totals differ: %s vs %s",
			first.GrandProposalTotal, second.GrandProposalTotal)
	}
	if first.GrandInvoiceTotal.String() != second.GrandInvoiceTotal.String() {
		t.Errorf("grand invoice totals differ: %s vs %s",
			first.GrandInvoiceTotal, second.GrandInvoiceTotal)
	}
}

func TestAggregateEmptyBatch(t *testing.T) {
	agg := New(nil)
	_, _, err := agg.Aggregate(nil, testRoles)
	if err == nil {
		t.Fatal("expected error for empty batch")
	}

	reportErr, ok := errors.AsReportError(err)
	if !ok {
		t.Fatalf("expected *ReportError, got %T", err)
	}
	if reportErr.Code != errors.CodeEmptyBatch {
		t.Errorf("error code = %s, want %s", reportErr.Code, errors.CodeEmptyBatch)
	}
}

func TestCanonicalCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Setup", CategorySetup},
		{"SET UP", CategorySetup},
		{"set-up", CategorySetup},
		{"Configuração", CategorySetup},
		{"Mensalidade", CategoryMonthly},
		{"MENSAL", CategoryMonthly},
		{"monthly", CategoryMonthly},
		{"", CategoryOther},
		{"Consultoria", "Consultoria"},
	}

	for _, tt := range tests {
		if got := CanonicalCategory(tt.input); got != tt.expected {
			t.Errorf("CanonicalCategory(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
