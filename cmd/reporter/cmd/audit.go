package cmd

import (
	"context"
	"fmt"
	"os"

	"sheets-report-service/cmd/reporter/config"
	"sheets-report-service/internal/models"
	"sheets-report-service/internal/report"
	"sheets-report-service/internal/reporter"
	"sheets-report-service/internal/sheetsource"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the audit command
var (
	auditMonth        string
	auditOutputFormat string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Cross-validate one month of the report",
	Long: `Audit rebuilds the report, re-derives the month's totals from the
hierarchical drill-down and compares them against the flat summary. It also
flags records that were invoiced with no proposal, invoiced above their
proposal, or grouped under a month their date does not normalize to.

Examples:
  reporter audit --input-file export.csv --month 2025-06
  reporter audit --sheet-url <url> --month 2025-06 --output-format json`,

	PreRunE: validateAuditFlags,
	RunE:    runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVarP(&auditMonth, "month", "m", "", "month to audit (YYYY-MM, required)")
	auditCmd.Flags().StringVarP(&auditOutputFormat, "audit-format", "f", "console", "output format: console, json")

	auditCmd.MarkFlagRequired("month")

	viper.BindPFlag("month", auditCmd.Flags().Lookup("month"))
	viper.BindPFlag("audit-format", auditCmd.Flags().Lookup("audit-format"))
}

func validateAuditFlags(cmd *cobra.Command, args []string) error {
	auditMonth = viper.GetString("month")
	auditOutputFormat = viper.GetString("audit-format")

	if err := validateSourceFlags(); err != nil {
		return err
	}

	if !models.MonthKey(auditMonth).Valid() {
		return fmt.Errorf("invalid month '%s', expected YYYY-MM", auditMonth)
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[auditOutputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", auditOutputFormat)
	}

	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client := sheetsource.NewClient(config.CreateSourceConfig(credentialsPath, publicOnly, 0))
	rows, err := loadRows(ctx, client)
	if err != nil {
		return err
	}

	overrideMap, err := config.ParseOverrides(overrides)
	if err != nil {
		return err
	}

	service := report.NewService()
	rep, err := service.BuildReport(&report.Request{
		Rows:      rows,
		Overrides: overrideMap,
	})
	if err != nil {
		return err
	}

	result, err := service.AuditMonth(rep, models.MonthKey(auditMonth))
	if err != nil {
		return err
	}

	generator, err := reporter.NewReportGenerator(
		config.CreateReportConfig(auditOutputFormat, false, false))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	if err := generator.GenerateAuditReport(result, os.Stdout); err != nil {
		return fmt.Errorf("failed to generate audit report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nAudit completed: %d leaf records, %d flags.\n",
			result.LeafCount, len(result.Flags))
	}

	return nil
}
