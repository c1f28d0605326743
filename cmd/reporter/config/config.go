// Package config translates CLI flag values into the component
// configurations used by the report pipeline.
package config

import (
	"fmt"
	"strings"
	"time"

	"sheets-report-service/internal/models"
	"sheets-report-service/internal/reporter"
	"sheets-report-service/internal/sheetsource"
)

// knownRoles maps the flag spelling of a role to its model constant.
var knownRoles = map[string]models.ColumnRole{
	"date":           models.RoleDate,
	"proposal":       models.RoleProposal,
	"proposal_value": models.RoleProposal,
	"invoice":        models.RoleInvoice,
	"invoice_value":  models.RoleInvoice,
	"category":       models.RoleCategory,
	"counterparty":   models.RoleCounterparty,
}

// ParseOverrides converts role=Header flag values into an override map.
func ParseOverrides(pairs []string) (map[models.ColumnRole]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	result := make(map[models.ColumnRole]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid override '%s', expected role=Header", pair)
		}

		role, ok := knownRoles[strings.ToLower(strings.TrimSpace(parts[0]))]
		if !ok {
			return nil, fmt.Errorf("unknown role '%s'. Valid roles: date, proposal, invoice, category, counterparty", parts[0])
		}
		result[role] = strings.TrimSpace(parts[1])
	}
	return result, nil
}

// ParseMonthKeys validates YYYY-MM flag values.
func ParseMonthKeys(values []string) ([]models.MonthKey, error) {
	if len(values) == 0 {
		return nil, nil
	}

	keys := make([]models.MonthKey, 0, len(values))
	for _, value := range values {
		key := models.MonthKey(strings.TrimSpace(value))
		if !key.Valid() {
			return nil, fmt.Errorf("invalid month '%s', expected YYYY-MM", value)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ProjectionTargets merges explicit target months with the next autoProject
// months counted from now. Duplicates collapse, order is preserved.
func ProjectionTargets(explicit []models.MonthKey, autoProject int, now time.Time) []models.MonthKey {
	targets := make([]models.MonthKey, 0, len(explicit)+autoProject)
	seen := make(map[models.MonthKey]bool)

	add := func(key models.MonthKey) {
		if !seen[key] {
			seen[key] = true
			targets = append(targets, key)
		}
	}

	for _, key := range explicit {
		add(key)
	}
	for _, key := range models.NextMonths(now, autoProject) {
		add(key)
	}
	return targets
}

// CreateSourceConfig creates a fetch configuration from the CLI flags
func CreateSourceConfig(credentialsPath string, publicOnly bool, timeout time.Duration) *sheetsource.Config {
	config := sheetsource.DefaultConfig()
	config.CredentialsPath = credentialsPath
	config.PublicOnly = publicOnly
	if timeout > 0 {
		config.Timeout = timeout
	}
	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, includeBreakdown, includeRecords bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	default:
		config.Format = reporter.OutputFormat(format)
	}

	config.IncludeBreakdown = includeBreakdown
	config.IncludeRecords = includeRecords
	return config
}
