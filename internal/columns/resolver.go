package columns

import (
	"sheets-report-service/internal/models"
	"sheets-report-service/internal/normalize"
	"sheets-report-service/pkg/errors"
	"sheets-report-service/pkg/logger"
)

const (
	// sampleLimit caps how many rows the numeric-content heuristic looks at.
	sampleLimit = 50

	// minNumericHits is the minimum nonzero parse count for a column to be
	// picked by the heuristic.
	minNumericHits = 1
)

// Resolver maps headers to column roles once per batch.
type Resolver struct {
	logger logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{logger: logger.GetGlobalLogger().WithComponent("column_resolver")}
}

// Resolve builds the role map for a batch. Overrides naming a real header
// take absolute priority; entries naming unknown headers are ignored. When
// the date, proposal or invoice role stays unresolved the whole call fails
// with a MissingColumnRole error and no partial result.
func (r *Resolver) Resolve(headers []string, sample []*models.Row, overrides map[models.ColumnRole]string) (models.ColumnRoleMap, error) {
	roles := make(models.ColumnRoleMap, len(roleRules))
	taken := make(map[string]bool)

	for _, rule := range roleRules {
		header := r.resolveRole(rule, headers, sample, overrides, taken)
		if header == "" && rule.role.IsEssential() {
			r.logger.WithFields(logger.Fields{
				"role":    rule.role.String(),
				"headers": headers,
			}).Error("Essential column role could not be resolved")
			return nil, errors.MissingColumnRole(rule.role.String(), headers)
		}
		roles[rule.role] = header
		if header != "" {
			taken[header] = true
		}
	}

	r.logger.WithFields(logger.Fields{
		"date":         roles[models.RoleDate],
		"proposal":     roles[models.RoleProposal],
		"invoice":      roles[models.RoleInvoice],
		"category":     roles[models.RoleCategory],
		"counterparty": roles[models.RoleCounterparty],
	}).Info("Resolved column roles")

	return roles, nil
}

func (r *Resolver) resolveRole(rule roleRule, headers []string, sample []*models.Row, overrides map[models.ColumnRole]string, taken map[string]bool) string {
	// 1. Caller override, honored only when it names a real header.
	if override, ok := overrides[rule.role]; ok && override != "" {
		if containsHeader(headers, override) {
			r.logger.WithFields(logger.Fields{
				"role":   rule.role.String(),
				"header": override,
			}).Debug("Role resolved by override")
			return override
		}
		r.logger.WithFields(logger.Fields{
			"role":   rule.role.String(),
			"header": override,
		}).Warn("Ignoring override naming an unknown header")
	}

	// 2. Alias candidates, in priority order: the first candidate that
	// matches any header wins, before later candidates are considered.
	for _, alias := range rule.aliases {
		for _, header := range headers {
			if matchesRole(rule, header) && normalize.ContainsFolded(header, alias) {
				return header
			}
		}
	}

	// 3. Generic keyword fallback.
	for _, header := range headers {
		if !matchesRole(rule, header) {
			continue
		}
		for _, keyword := range rule.keywords {
			if normalize.ContainsFolded(header, keyword) {
				return header
			}
		}
	}

	// 4. Numeric-content heuristic, value roles only.
	if rule.numericFallback {
		return r.bestNumericColumn(headers, sample, taken)
	}
	return ""
}

// matchesRole guards value roles against date-like headers. A header
// containing a date word never resolves as a monetary column.
func matchesRole(rule roleRule, header string) bool {
	if !rule.numericFallback {
		return true
	}
	for _, word := range dateWords {
		if normalize.ContainsFolded(header, word) {
			return false
		}
	}
	return true
}

// bestNumericColumn samples the batch and picks the unclaimed non-date
// column whose cells most often parse to a nonzero amount.
func (r *Resolver) bestNumericColumn(headers []string, sample []*models.Row, taken map[string]bool) string {
	limit := len(sample)
	if limit > sampleLimit {
		limit = sampleLimit
	}

	best := ""
	bestHits := minNumericHits - 1
	for _, header := range headers {
		if taken[header] || isDateHeader(header) {
			continue
		}
		hits := 0
		for _, row := range sample[:limit] {
			if !normalize.ParseAmount(row.Get(header)).IsZero() {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = header
		}
	}

	if best != "" {
		r.logger.WithFields(logger.Fields{
			"header": best,
			"hits":   bestHits,
		}).Debug("Role resolved by numeric-content sampling")
	}
	return best
}

func isDateHeader(header string) bool {
	for _, word := range dateWords {
		if normalize.ContainsFolded(header, word) {
			return true
		}
	}
	return false
}

func containsHeader(headers []string, candidate string) bool {
	for _, h := range headers {
		if h == candidate {
			return true
		}
	}
	return false
}
