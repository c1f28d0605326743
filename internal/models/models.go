// Package models defines the domain types shared by the report pipeline:
// raw spreadsheet rows, canonical month keys, extracted proposal records,
// contracts and the two aggregate views (flat monthly summary and the
// month → category → counterparty breakdown).
//
// All aggregate types are rebuilt from scratch on every aggregation call;
// none of them persist state between calls. Monetary amounts use
// decimal.Decimal so repeated aggregation of identical input is
// byte-identical.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnRole identifies the semantic meaning of a spreadsheet column.
type ColumnRole string

const (
	RoleDate         ColumnRole = "date"
	RoleProposal     ColumnRole = "proposal_value"
	RoleInvoice      ColumnRole = "invoice_value"
	RoleCategory     ColumnRole = "category"
	RoleCounterparty ColumnRole = "counterparty"
)

// String returns the string representation of the role.
func (r ColumnRole) String() string {
	return string(r)
}

// IsEssential reports whether the aggregation cannot proceed without a
// column resolved for this role.
func (r ColumnRole) IsEssential() bool {
	return r == RoleDate || r == RoleProposal || r == RoleInvoice
}

// ColumnRoleMap maps resolved roles to the actual header that fills them.
// Optional roles that could not be resolved map to the empty string.
type ColumnRoleMap map[ColumnRole]string

// Header returns the header resolved for the role, or "" if unresolved.
func (m ColumnRoleMap) Header(role ColumnRole) string {
	return m[role]
}

// Row is one spreadsheet row: an ordered header list shared by the whole
// batch plus the cell text per header. Cells may be empty.
type Row struct {
	Headers []string
	Cells   map[string]string
	Index   int
}

// NewRow creates a Row over the shared header list.
func NewRow(headers []string, cells map[string]string, index int) *Row {
	if cells == nil {
		cells = make(map[string]string)
	}
	return &Row{Headers: headers, Cells: cells, Index: index}
}

// Get returns the trimmed cell text for a header, "" when absent.
func (r *Row) Get(header string) string {
	return strings.TrimSpace(r.Cells[header])
}

// IsEmpty reports whether every cell of the row is blank.
func (r *Row) IsEmpty() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// MonthKey is the canonical "YYYY-MM" grouping identifier. Its string
// ordering equals chronological ordering.
type MonthKey string

// Valid reports whether the key has the canonical YYYY-MM shape with a
// month between 01 and 12.
func (k MonthKey) Valid() bool {
	s := string(k)
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 1000 {
		return false
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	return true
}

// FirstOfMonth returns midnight UTC on the first day of the month.
func (k MonthKey) FirstOfMonth() (time.Time, error) {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", string(k), err)
	}
	return t, nil
}

// MonthKeyOf returns the canonical key for a point in time.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// NextMonths returns the n calendar months strictly after from, in
// ascending order. Used to build the default projection window.
func NextMonths(from time.Time, n int) []MonthKey {
	keys := make([]MonthKey, 0, n)
	base := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		keys = append(keys, MonthKeyOf(base.AddDate(0, i, 0)))
	}
	return keys
}

// ProposalRecord is the extraction of a single row: the two monetary
// quantities being compared plus the grouping fields and the raw cells
// kept for display.
type ProposalRecord struct {
	Counterparty      string            `json:"counterparty"`
	Category          string            `json:"category"`
	Month             MonthKey          `json:"month"`
	RawDate           string            `json:"raw_date"`
	ProposalValue     decimal.Decimal   `json:"proposal_value"`
	InvoiceValue      decimal.Decimal   `json:"invoice_value"`
	Difference        decimal.Decimal   `json:"difference"`
	DifferencePercent decimal.Decimal   `json:"difference_percent"`
	Aux               map[string]string `json:"aux,omitempty"`
	RowIndex          int               `json:"row_index"`
}

// NewProposalRecord builds a record and derives its difference fields.
func NewProposalRecord(counterparty, category string, month MonthKey, rawDate string, proposal, invoice decimal.Decimal) *ProposalRecord {
	diff := invoice.Sub(proposal)
	percent := decimal.Zero
	if !proposal.IsZero() {
		percent = diff.Div(proposal).Mul(decimal.NewFromInt(100))
	}
	return &ProposalRecord{
		Counterparty:      counterparty,
		Category:          category,
		Month:             month,
		RawDate:           rawDate,
		ProposalValue:     proposal,
		InvoiceValue:      invoice,
		Difference:        diff,
		DifferencePercent: percent,
	}
}

// String returns a short human-readable representation.
func (r *ProposalRecord) String() string {
	return fmt.Sprintf("ProposalRecord{%s %s/%s proposal=%s invoice=%s}",
		r.Month, r.Category, r.Counterparty, r.ProposalValue.String(), r.InvoiceValue.String())
}

// Contract is a time-bounded agreement contributing a fixed installment to
// every month in its range. Fields stay raw strings; the projection engine
// parses and validates them per target month.
type Contract struct {
	ProposalID       string `json:"proposal_id"`
	InstallmentValue string `json:"installment_value"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	ContractType     string `json:"contract_type"`
}

// Complete reports whether all fields required for projection are present.
func (c *Contract) Complete() bool {
	return strings.TrimSpace(c.ProposalID) != "" &&
		strings.TrimSpace(c.InstallmentValue) != "" &&
		strings.TrimSpace(c.StartDate) != "" &&
		strings.TrimSpace(c.EndDate) != "" &&
		strings.TrimSpace(c.ContractType) != ""
}

// String returns a short human-readable representation.
func (c *Contract) String() string {
	return fmt.Sprintf("Contract{%s %s [%s..%s] %s}",
		c.ProposalID, c.InstallmentValue, c.StartDate, c.EndDate, c.ContractType)
}

// ProjectionRecord is a synthesized entry derived from a contract for one
// target month. Projections always carry IsProjection=true and equal
// proposal and invoice values.
type ProjectionRecord struct {
	ProposalID   string          `json:"proposal_id"`
	Value        decimal.Decimal `json:"value"`
	ContractType string          `json:"contract_type"`
	IsProjection bool            `json:"is_projection"`
}

// NewProjectionRecord builds a projection entry for a contract.
func NewProjectionRecord(proposalID string, value decimal.Decimal, contractType string) *ProjectionRecord {
	return &ProjectionRecord{
		ProposalID:   proposalID,
		Value:        value,
		ContractType: contractType,
		IsProjection: true,
	}
}
