package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlyBucket is one month of the flat view: the two totals being
// compared, their difference, the average difference percent and the
// records that produced them. A projection bucket carries synthesized
// ProjectionRecord entries instead of real rows and is never built over a
// month with nonzero real totals.
type MonthlyBucket struct {
	Month                MonthKey            `json:"month"`
	ProposalTotal        decimal.Decimal     `json:"proposal_total"`
	InvoiceTotal         decimal.Decimal     `json:"invoice_total"`
	DifferenceTotal      decimal.Decimal     `json:"difference_total"`
	DifferencePercentAvg decimal.Decimal     `json:"difference_percent_avg"`
	RecordCount          int                 `json:"record_count"`
	IsProjection         bool                `json:"is_projection"`
	Records              []*ProposalRecord   `json:"records,omitempty"`
	Projections          []*ProjectionRecord `json:"projections,omitempty"`
}

// NewMonthlyBucket returns an empty bucket for the month.
func NewMonthlyBucket(month MonthKey) *MonthlyBucket {
	return &MonthlyBucket{
		Month:                month,
		ProposalTotal:        decimal.Zero,
		InvoiceTotal:         decimal.Zero,
		DifferenceTotal:      decimal.Zero,
		DifferencePercentAvg: decimal.Zero,
	}
}

// Add accumulates one record into the bucket.
func (b *MonthlyBucket) Add(rec *ProposalRecord) {
	b.ProposalTotal = b.ProposalTotal.Add(rec.ProposalValue)
	b.InvoiceTotal = b.InvoiceTotal.Add(rec.InvoiceValue)
	b.DifferenceTotal = b.DifferenceTotal.Add(rec.Difference)
	b.RecordCount++
	b.Records = append(b.Records, rec)
}

// FinalizePercent computes the average difference percent. Zero proposal
// total yields zero, matching the documented best-effort policy.
func (b *MonthlyBucket) FinalizePercent() {
	if b.ProposalTotal.IsZero() {
		b.DifferencePercentAvg = decimal.Zero
		return
	}
	b.DifferencePercentAvg = b.DifferenceTotal.Div(b.ProposalTotal).Mul(decimal.NewFromInt(100))
}

// HasRealTotals reports whether either total is nonzero. Months with real
// totals are never eligible for projection.
func (b *MonthlyBucket) HasRealTotals() bool {
	return !b.ProposalTotal.IsZero() || !b.InvoiceTotal.IsZero()
}

// Zero clears the bucket totals while keeping its records. Applied only to
// months explicitly listed in the aggregator's ZeroedMonths configuration.
func (b *MonthlyBucket) Zero() {
	b.ProposalTotal = decimal.Zero
	b.InvoiceTotal = decimal.Zero
	b.DifferenceTotal = decimal.Zero
	b.DifferencePercentAvg = decimal.Zero
}

// MonthlySummary is the flat view: per-month buckets plus grand totals
// across every month processed.
type MonthlySummary struct {
	Months               map[MonthKey]*MonthlyBucket `json:"months"`
	GrandProposalTotal   decimal.Decimal             `json:"grand_proposal_total"`
	GrandInvoiceTotal    decimal.Decimal             `json:"grand_invoice_total"`
	GrandDifferenceTotal decimal.Decimal             `json:"grand_difference_total"`
	MonthsProcessed      int                         `json:"months_processed"`
}

// NewMonthlySummary returns an empty flat view.
func NewMonthlySummary() *MonthlySummary {
	return &MonthlySummary{
		Months:               make(map[MonthKey]*MonthlyBucket),
		GrandProposalTotal:   decimal.Zero,
		GrandInvoiceTotal:    decimal.Zero,
		GrandDifferenceTotal: decimal.Zero,
	}
}

// Bucket returns the bucket for the month, creating it when absent.
func (s *MonthlySummary) Bucket(month MonthKey) *MonthlyBucket {
	if b, ok := s.Months[month]; ok {
		return b
	}
	b := NewMonthlyBucket(month)
	s.Months[month] = b
	return b
}

// SortedKeys returns the month keys ascending; string order equals
// chronological order for canonical keys.
func (s *MonthlySummary) SortedKeys() []MonthKey {
	keys := make([]MonthKey, 0, len(s.Months))
	for k := range s.Months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// RecomputeGrandTotals rebuilds the grand totals and month count from the
// current buckets.
func (s *MonthlySummary) RecomputeGrandTotals() {
	s.GrandProposalTotal = decimal.Zero
	s.GrandInvoiceTotal = decimal.Zero
	s.GrandDifferenceTotal = decimal.Zero
	for _, b := range s.Months {
		s.GrandProposalTotal = s.GrandProposalTotal.Add(b.ProposalTotal)
		s.GrandInvoiceTotal = s.GrandInvoiceTotal.Add(b.InvoiceTotal)
		s.GrandDifferenceTotal = s.GrandDifferenceTotal.Add(b.DifferenceTotal)
	}
	s.MonthsProcessed = len(s.Months)
}

// Clone returns a deep copy of the summary. The projection engine merges
// into a clone so the input view stays untouched.
func (s *MonthlySummary) Clone() *MonthlySummary {
	out := NewMonthlySummary()
	for k, b := range s.Months {
		nb := NewMonthlyBucket(k)
		nb.ProposalTotal = b.ProposalTotal
		nb.InvoiceTotal = b.InvoiceTotal
		nb.DifferenceTotal = b.DifferenceTotal
		nb.DifferencePercentAvg = b.DifferencePercentAvg
		nb.RecordCount = b.RecordCount
		nb.IsProjection = b.IsProjection
		nb.Records = append(nb.Records, b.Records...)
		nb.Projections = append(nb.Projections, b.Projections...)
		out.Months[k] = nb
	}
	out.RecomputeGrandTotals()
	return out
}

// Totals is the set of four running totals carried by every level of the
// hierarchical view.
type Totals struct {
	ProposalTotal   decimal.Decimal `json:"total_proposal"`
	InvoiceTotal    decimal.Decimal `json:"total_invoice"`
	DifferenceTotal decimal.Decimal `json:"total_difference"`
	RecordCount     int             `json:"total_records"`
}

// NewTotals returns zeroed totals.
func NewTotals() Totals {
	return Totals{
		ProposalTotal:   decimal.Zero,
		InvoiceTotal:    decimal.Zero,
		DifferenceTotal: decimal.Zero,
	}
}

// Add accumulates one record into the totals.
func (t *Totals) Add(rec *ProposalRecord) {
	t.ProposalTotal = t.ProposalTotal.Add(rec.ProposalValue)
	t.InvoiceTotal = t.InvoiceTotal.Add(rec.InvoiceValue)
	t.DifferenceTotal = t.DifferenceTotal.Add(rec.Difference)
	t.RecordCount++
}

// CounterpartyBucket is the innermost level of the breakdown: one
// counterparty's records within a category and month.
type CounterpartyBucket struct {
	Name    string            `json:"name"`
	Totals  Totals            `json:"totals"`
	Records []*ProposalRecord `json:"records"`
}

// NewCounterpartyBucket returns an empty counterparty bucket.
func NewCounterpartyBucket(name string) *CounterpartyBucket {
	return &CounterpartyBucket{Name: name, Totals: NewTotals()}
}

// CategoryBucket groups counterparties within a category and month.
type CategoryBucket struct {
	Name           string                         `json:"name"`
	Totals         Totals                         `json:"totals"`
	Counterparties map[string]*CounterpartyBucket `json:"counterparties"`
}

// NewCategoryBucket returns an empty category bucket.
func NewCategoryBucket(name string) *CategoryBucket {
	return &CategoryBucket{
		Name:           name,
		Totals:         NewTotals(),
		Counterparties: make(map[string]*CounterpartyBucket),
	}
}

// Counterparty returns the child bucket, creating it when absent.
func (c *CategoryBucket) Counterparty(name string) *CounterpartyBucket {
	if b, ok := c.Counterparties[name]; ok {
		return b
	}
	b := NewCounterpartyBucket(name)
	c.Counterparties[name] = b
	return b
}

// SortedCounterparties returns child names ascending for stable output.
func (c *CategoryBucket) SortedCounterparties() []string {
	names := make([]string, 0, len(c.Counterparties))
	for n := range c.Counterparties {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MonthBucket is the top level of the breakdown for one month.
type MonthBucket struct {
	Month      MonthKey                   `json:"month"`
	Totals     Totals                     `json:"totals"`
	Categories map[string]*CategoryBucket `json:"categories"`
}

// NewMonthBucket returns an empty month bucket.
func NewMonthBucket(month MonthKey) *MonthBucket {
	return &MonthBucket{
		Month:      month,
		Totals:     NewTotals(),
		Categories: make(map[string]*CategoryBucket),
	}
}

// Category returns the child bucket, creating it when absent.
func (m *MonthBucket) Category(name string) *CategoryBucket {
	if b, ok := m.Categories[name]; ok {
		return b
	}
	b := NewCategoryBucket(name)
	m.Categories[name] = b
	return b
}

// SortedCategories returns child names ascending for stable output.
func (m *MonthBucket) SortedCategories() []string {
	names := make([]string, 0, len(m.Categories))
	for n := range m.Categories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LeafRecords returns every record reachable under the month, walking
// categories and counterparties in sorted order.
func (m *MonthBucket) LeafRecords() []*ProposalRecord {
	var records []*ProposalRecord
	for _, cat := range m.SortedCategories() {
		category := m.Categories[cat]
		for _, cp := range category.SortedCounterparties() {
			records = append(records, category.Counterparties[cp].Records...)
		}
	}
	return records
}

// Breakdown is the hierarchical view: month → category → counterparty →
// record, each level carrying its own totals.
type Breakdown struct {
	Months map[MonthKey]*MonthBucket `json:"months"`
}

// NewBreakdown returns an empty hierarchical view.
func NewBreakdown() *Breakdown {
	return &Breakdown{Months: make(map[MonthKey]*MonthBucket)}
}

// Month returns the month bucket, creating it when absent.
func (b *Breakdown) Month(month MonthKey) *MonthBucket {
	if mb, ok := b.Months[month]; ok {
		return mb
	}
	mb := NewMonthBucket(month)
	b.Months[month] = mb
	return mb
}

// SortedKeys returns the month keys ascending.
func (b *Breakdown) SortedKeys() []MonthKey {
	keys := make([]MonthKey, 0, len(b.Months))
	for k := range b.Months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Add routes one record into all three nested levels atomically.
func (b *Breakdown) Add(rec *ProposalRecord) {
	month := b.Month(rec.Month)
	category := month.Category(rec.Category)
	counterparty := category.Counterparty(rec.Counterparty)

	month.Totals.Add(rec)
	category.Totals.Add(rec)
	counterparty.Totals.Add(rec)
	counterparty.Records = append(counterparty.Records, rec)
}
