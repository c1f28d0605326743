package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sheets-report-service/cmd/reporter/config"
	"sheets-report-service/internal/models"
	"sheets-report-service/internal/report"
	"sheets-report-service/internal/reporter"
	"sheets-report-service/internal/sheetsource"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the report command
var (
	contractsTab     string
	projectMonths    []string
	autoProject      int
	zeroMonths       []string
	outputFormat     string
	outputFile       string
	includeBreakdown bool
	includeRecords   bool
	detailMonth      string
	fetchTimeout     time.Duration
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the monthly proposal-versus-invoice report",
	Long: `Report fetches the spreadsheet rows, infers column roles, aggregates
every row by month, category and counterparty and prints the monthly
summary. Months without real data can be backfilled from a contract list.

Examples:
  # Report from a public sheet
  reporter report --sheet-url "https://docs.google.com/spreadsheets/d/<id>/edit#gid=0"

  # Report from a local CSV export with an explicit column override
  reporter report --input-file export.csv --override counterparty=Empresa

  # Project the next three months from the Contratos tab
  reporter report --sheet-url <url> --contracts-tab Contratos --auto-project 3

  # Machine-readable output with the full drill-down
  reporter report --input-file export.csv --output-format json --breakdown`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Projection flags
	reportCmd.Flags().StringVar(&contractsTab, "contracts-tab", "", "sheet tab holding the contract list (enables projection)")
	reportCmd.Flags().StringSliceVar(&projectMonths, "project-months", nil, "months to backfill from contracts (YYYY-MM, repeatable)")
	reportCmd.Flags().IntVar(&autoProject, "auto-project", 0, "also backfill the next N calendar months")

	// Aggregation flags
	reportCmd.Flags().StringSliceVar(&zeroMonths, "zero-month", nil, "months whose totals are forced to zero (YYYY-MM, repeatable)")

	// Output flags
	reportCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reportCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().BoolVar(&includeBreakdown, "breakdown", false, "include the category and counterparty drill-down")
	reportCmd.Flags().BoolVar(&includeRecords, "include-records", false, "include individual records in the drill-down")
	reportCmd.Flags().StringVarP(&detailMonth, "month", "m", "", "limit the drill-down to one month (YYYY-MM, implies --breakdown)")

	// Fetch flags
	reportCmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 30*time.Second, "timeout for the spreadsheet fetch")

	// Bind flags to viper
	viper.BindPFlag("contracts-tab", reportCmd.Flags().Lookup("contracts-tab"))
	viper.BindPFlag("project-months", reportCmd.Flags().Lookup("project-months"))
	viper.BindPFlag("auto-project", reportCmd.Flags().Lookup("auto-project"))
	viper.BindPFlag("zero-month", reportCmd.Flags().Lookup("zero-month"))
	viper.BindPFlag("output-format", reportCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reportCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("breakdown", reportCmd.Flags().Lookup("breakdown"))
	viper.BindPFlag("include-records", reportCmd.Flags().Lookup("include-records"))
	viper.BindPFlag("detail-month", reportCmd.Flags().Lookup("month"))
	viper.BindPFlag("fetch-timeout", reportCmd.Flags().Lookup("fetch-timeout"))
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	contractsTab = viper.GetString("contracts-tab")
	projectMonths = viper.GetStringSlice("project-months")
	autoProject = viper.GetInt("auto-project")
	zeroMonths = viper.GetStringSlice("zero-month")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	includeBreakdown = viper.GetBool("breakdown")
	includeRecords = viper.GetBool("include-records")
	detailMonth = viper.GetString("detail-month")

	if err := validateSourceFlags(); err != nil {
		return err
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// Validate projection flags
	if autoProject < 0 {
		return fmt.Errorf("auto-project cannot be negative")
	}
	if (len(projectMonths) > 0 || autoProject > 0) && contractsTab == "" {
		return fmt.Errorf("projection requires --contracts-tab to name the contract list")
	}
	if contractsTab != "" && sheetURL == "" {
		return fmt.Errorf("contracts-tab requires --sheet-url; contracts cannot be read from a local file")
	}

	// Validate month flags early so typos fail before the fetch
	if detailMonth != "" && !models.MonthKey(detailMonth).Valid() {
		return fmt.Errorf("invalid month '%s', expected YYYY-MM", detailMonth)
	}
	if _, err := config.ParseMonthKeys(projectMonths); err != nil {
		return err
	}
	if _, err := config.ParseMonthKeys(zeroMonths); err != nil {
		return err
	}
	if _, err := config.ParseOverrides(overrides); err != nil {
		return err
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

// validateSourceFlags checks the shared source flags. Exactly one of
// sheet-url and input-file must be given.
func validateSourceFlags() error {
	sheetURL = viper.GetString("sheet-url")
	inputFile = viper.GetString("input-file")
	sheetGID = viper.GetString("sheet-gid")
	credentialsPath = viper.GetString("credentials")
	publicOnly = viper.GetBool("public-only")
	overrides = viper.GetStringSlice("override")

	if sheetURL == "" && inputFile == "" {
		return fmt.Errorf("either --sheet-url or --input-file is required")
	}
	if sheetURL != "" && inputFile != "" {
		return fmt.Errorf("--sheet-url and --input-file are mutually exclusive")
	}

	if inputFile != "" {
		info, err := os.Stat(inputFile)
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputFile)
		}
		if err != nil {
			return fmt.Errorf("error accessing input file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("input file is a directory, expected a file: %s", inputFile)
		}
	}

	return nil
}

// loadRows reads the row batch from whichever source was configured.
func loadRows(ctx context.Context, client *sheetsource.Client) ([]*models.Row, error) {
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		return sheetsource.RowsFromCSV(file)
	}

	fetchURL := sheetURL
	if sheetGID != "" {
		fetchURL = fmt.Sprintf("%s#gid=%s", sheetURL, sheetGID)
	}
	return client.FetchRows(ctx, fetchURL)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Building report...\n")
		if sheetURL != "" {
			fmt.Fprintf(os.Stderr, "Sheet URL: %s\n", sheetURL)
		} else {
			fmt.Fprintf(os.Stderr, "Input file: %s\n", inputFile)
		}
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
	}

	// Fetch rows
	client := sheetsource.NewClient(config.CreateSourceConfig(credentialsPath, publicOnly, fetchTimeout))
	rows, err := loadRows(ctx, client)
	if err != nil {
		return err
	}

	// Fetch contracts when projection was requested
	var contracts []*models.Contract
	targetKeys, _ := config.ParseMonthKeys(projectMonths)
	targets := config.ProjectionTargets(targetKeys, autoProject, time.Now())
	if contractsTab != "" && len(targets) > 0 {
		contracts, err = client.FetchContracts(ctx, sheetURL, contractsTab)
		if err != nil {
			return err
		}
	}

	overrideMap, _ := config.ParseOverrides(overrides)
	zeroKeys, _ := config.ParseMonthKeys(zeroMonths)

	// Build the report
	service := report.NewService()
	rep, err := service.BuildReport(&report.Request{
		Rows:         rows,
		Overrides:    overrideMap,
		Contracts:    contracts,
		TargetMonths: targets,
		ZeroedMonths: zeroKeys,
	})
	if err != nil {
		return err
	}

	// Render
	renderConfig := config.CreateReportConfig(outputFormat, includeBreakdown, includeRecords)
	if detailMonth != "" {
		renderConfig.MonthFilter = models.MonthKey(detailMonth)
		renderConfig.IncludeBreakdown = true
	}
	generator, err := reporter.NewReportGenerator(renderConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := generator.GenerateReport(rep, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReport completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d rows into %d months.\n",
			len(rows), rep.Summary.MonthsProcessed)
	}

	return nil
}
