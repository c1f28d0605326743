// Package reporter renders built reports for people and machines.
//
// Three output formats are supported:
//   - Console: human-readable tables for terminal display
//   - JSON: the full report structure for programmatic consumption
//   - CSV: one line per month for spreadsheet applications
//
// The console format covers the monthly summary, an optional per-month
// drill-down (category and counterparty subtotals) and the month audit.
// Projected months are marked so they are never mistaken for real data.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"sheets-report-service/internal/audit"
	"sheets-report-service/internal/models"
	"sheets-report-service/internal/report"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// unnamedCounterparty labels records whose counterparty cell was blank.
// The blank name stays in the data; only the rendering substitutes it.
const unnamedCounterparty = "Empresa não informada"

// ReportConfig holds configuration options for report rendering
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeBreakdown bool `json:"include_breakdown"`
	IncludeRecords   bool `json:"include_records"`

	// MonthFilter limits the drill-down to one month; empty means all.
	MonthFilter models.MonthKey `json:"month_filter,omitempty"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeBreakdown: false,
		IncludeRecords:   false,
		CSVDelimiter:     ',',
		CSVHeaders:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders reports in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the report to the provided writer.
func (rg *ReportGenerator) GenerateReport(rep *report.Report, writer io.Writer) error {
	if rep == nil {
		return fmt.Errorf("report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(rep, writer)
	case FormatJSON:
		return rg.generateJSONReport(rep, writer)
	case FormatCSV:
		return rg.generateCSVReport(rep, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport renders the human-readable report
func (rg *ReportGenerator) generateConsoleReport(rep *report.Report, writer io.Writer) error {
	fmt.Fprintf(writer, "MONTHLY REPORT\n\n")

	fmt.Fprintf(writer, "=== COLUMN ROLES ===\n")
	rg.printRoles(rep.Roles, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== MONTHLY SUMMARY ===\n")
	rg.printSummaryTable(rep.Summary, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== GRAND TOTALS ===\n")
	rg.printGrandTotals(rep.Summary, writer)

	if rg.config.IncludeBreakdown && rep.Breakdown != nil {
		for _, month := range rep.Breakdown.SortedKeys() {
			if rg.config.MonthFilter != "" && month != rg.config.MonthFilter {
				continue
			}
			fmt.Fprintf(writer, "\n=== BREAKDOWN %s ===\n", month)
			rg.printMonthBreakdown(rep.Breakdown.Months[month], writer)
		}
	}

	return nil
}

// generateJSONReport renders the full report structure as indented JSON
func (rg *ReportGenerator) generateJSONReport(rep *report.Report, writer io.Writer) error {
	output := map[string]interface{}{
		"summary": rep.Summary,
		"roles":   rep.Roles,
	}
	if rg.config.IncludeBreakdown {
		output["breakdown"] = rep.Breakdown
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// generateCSVReport renders one line per month
func (rg *ReportGenerator) generateCSVReport(rep *report.Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Month",
			"Proposal_Total",
			"Invoice_Total",
			"Difference_Total",
			"Difference_Percent_Avg",
			"Record_Count",
			"Is_Projection",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, month := range rep.Summary.SortedKeys() {
		bucket := rep.Summary.Months[month]
		record := []string{
			string(month),
			bucket.ProposalTotal.StringFixed(2),
			bucket.InvoiceTotal.StringFixed(2),
			bucket.DifferenceTotal.StringFixed(2),
			bucket.DifferencePercentAvg.StringFixed(2),
			fmt.Sprintf("%d", bucket.RecordCount),
			fmt.Sprintf("%t", bucket.IsProjection),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write month record: %w", err)
		}
	}

	return nil
}

// GenerateAuditReport renders a month audit. JSON output gets the full
// structure; the other formats get the console rendering.
func (rg *ReportGenerator) GenerateAuditReport(result *audit.MonthAudit, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("audit result cannot be nil")
	}

	if rg.config.Format == FormatJSON {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(writer, "MONTH AUDIT %s\n\n", result.Month)
	fmt.Fprintf(writer, "Flat Proposal Total:  %s\n", result.FlatProposal.StringFixed(2))
	fmt.Fprintf(writer, "Flat Invoice Total:   %s\n", result.FlatInvoice.StringFixed(2))
	fmt.Fprintf(writer, "Leaf Proposal Total:  %s\n", result.LeafProposal.StringFixed(2))
	fmt.Fprintf(writer, "Leaf Invoice Total:   %s\n", result.LeafInvoice.StringFixed(2))
	fmt.Fprintf(writer, "Proposal Delta:       %s\n", result.ProposalDelta.StringFixed(2))
	fmt.Fprintf(writer, "Invoice Delta:        %s\n", result.InvoiceDelta.StringFixed(2))
	fmt.Fprintf(writer, "Leaf Records:         %d\n", result.LeafCount)

	if result.Balanced {
		fmt.Fprintf(writer, "Status:               BALANCED\n")
	} else {
		fmt.Fprintf(writer, "Status:               UNBALANCED\n")
	}

	if len(result.Flags) > 0 {
		fmt.Fprintf(writer, "\nFlagged Records (%d):\n", len(result.Flags))
		for i, flag := range result.Flags {
			fmt.Fprintf(writer, "  %d. [%s] %s: %s (delta %s)\n",
				i+1,
				flag.Kind,
				displayName(flag.Record.Counterparty),
				flag.Detail,
				flag.Delta.StringFixed(2))
		}
	}

	return nil
}

// Helper methods for console output formatting

func (rg *ReportGenerator) printRoles(roles models.ColumnRoleMap, writer io.Writer) {
	order := []models.ColumnRole{
		models.RoleDate,
		models.RoleProposal,
		models.RoleInvoice,
		models.RoleCategory,
		models.RoleCounterparty,
	}
	for _, role := range order {
		header, ok := roles[role]
		if !ok {
			continue
		}
		fmt.Fprintf(writer, "  %-13s %s\n", string(role)+":", header)
	}
}

func (rg *ReportGenerator) printSummaryTable(summary *models.MonthlySummary, writer io.Writer) {
	fmt.Fprintf(writer, "%-10s %15s %15s %15s %10s %8s\n",
		"Month", "Proposal", "Invoice", "Difference", "Diff %", "Records")

	for _, month := range summary.SortedKeys() {
		bucket := summary.Months[month]
		marker := ""
		if bucket.IsProjection {
			marker = " (projected)"
		}
		fmt.Fprintf(writer, "%-10s %15s %15s %15s %9s%% %8d%s\n",
			month,
			bucket.ProposalTotal.StringFixed(2),
			bucket.InvoiceTotal.StringFixed(2),
			bucket.DifferenceTotal.StringFixed(2),
			bucket.DifferencePercentAvg.StringFixed(1),
			bucket.RecordCount,
			marker)
	}
}

func (rg *ReportGenerator) printGrandTotals(summary *models.MonthlySummary, writer io.Writer) {
	fmt.Fprintf(writer, "Months Processed:       %d\n", summary.MonthsProcessed)
	fmt.Fprintf(writer, "Grand Proposal Total:   %s\n", summary.GrandProposalTotal.StringFixed(2))
	fmt.Fprintf(writer, "Grand Invoice Total:    %s\n", summary.GrandInvoiceTotal.StringFixed(2))
	fmt.Fprintf(writer, "Grand Difference Total: %s\n", summary.GrandDifferenceTotal.StringFixed(2))
}

func (rg *ReportGenerator) printMonthBreakdown(month *models.MonthBucket, writer io.Writer) {
	fmt.Fprintf(writer, "Totals: proposal %s, invoice %s, difference %s (%d records)\n",
		month.Totals.ProposalTotal.StringFixed(2),
		month.Totals.InvoiceTotal.StringFixed(2),
		month.Totals.DifferenceTotal.StringFixed(2),
		month.Totals.RecordCount)

	for _, categoryName := range month.SortedCategories() {
		category := month.Categories[categoryName]
		fmt.Fprintf(writer, "\n%s (proposal %s, invoice %s, %d records)\n",
			categoryName,
			category.Totals.ProposalTotal.StringFixed(2),
			category.Totals.InvoiceTotal.StringFixed(2),
			category.Totals.RecordCount)

		for _, counterpartyName := range category.SortedCounterparties() {
			counterparty := category.Counterparties[counterpartyName]
			fmt.Fprintf(writer, "  %-40s %15s %15s %6d\n",
				displayName(counterpartyName),
				counterparty.Totals.ProposalTotal.StringFixed(2),
				counterparty.Totals.InvoiceTotal.StringFixed(2),
				counterparty.Totals.RecordCount)

			if rg.config.IncludeRecords {
				for _, rec := range counterparty.Records {
					fmt.Fprintf(writer, "    %s  proposal %s, invoice %s, diff %s\n",
						rec.RawDate,
						rec.ProposalValue.StringFixed(2),
						rec.InvoiceValue.StringFixed(2),
						rec.Difference.StringFixed(2))
				}
			}
		}
	}
}

// displayName substitutes the placeholder label for a blank counterparty.
func displayName(name string) string {
	if name == "" {
		return unnamedCounterparty
	}
	return name
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
