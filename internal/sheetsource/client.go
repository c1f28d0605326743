// Package sheetsource fetches the raw row batch and the contract list from
// a Google spreadsheet. The fetch is two-tier: the unauthenticated CSV
// export is tried first, and the authenticated Sheets API (service-account
// credentials) is the fallback for private sheets. Any failure surfaces as
// a single source-unavailable error; the pipeline never retries a fetch.
package sheetsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"sheets-report-service/internal/models"
	"sheets-report-service/internal/normalize"
	"sheets-report-service/pkg/errors"
	"sheets-report-service/pkg/logger"
)

var (
	sheetIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`),
		regexp.MustCompile(`key=([a-zA-Z0-9-_]+)`),
		regexp.MustCompile(`id=([a-zA-Z0-9-_]+)`),
	}
	gidPattern = regexp.MustCompile(`gid=([0-9]+)`)
)

// Config holds the fetch options.
type Config struct {
	// CredentialsPath points at the service-account JSON used by the API
	// fallback. Empty means GOOGLE_APPLICATION_CREDENTIALS, then the
	// conventional credentials.json.
	CredentialsPath string

	// Timeout bounds the CSV export request.
	Timeout time.Duration

	// PublicOnly disables the authenticated fallback entirely.
	PublicOnly bool
}

// DefaultConfig returns the fetch defaults: 30s timeout, API fallback on.
func DefaultConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}

// Client fetches rows and contracts from one spreadsheet source.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a Client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.GetGlobalLogger().WithComponent("sheet_source"),
	}
}

// ExtractSheetID pulls the spreadsheet ID out of a pasted sheet URL.
func ExtractSheetID(sheetURL string) (string, error) {
	for _, pattern := range sheetIDPatterns {
		if m := pattern.FindStringSubmatch(sheetURL); m != nil {
			return m[1], nil
		}
	}
	return "", errors.New(errors.CategorySource, errors.CodeInvalidSheetURL,
		"could not extract a spreadsheet ID from the URL").
		WithSuggestion("paste the full Google Sheets URL, including /spreadsheets/d/<id>").
		WithContext("url", sheetURL)
}

// ExtractGID pulls the tab gid out of a sheet URL, when present.
func ExtractGID(sheetURL string) (string, bool) {
	if m := gidPattern.FindStringSubmatch(sheetURL); m != nil {
		return m[1], true
	}
	return "", false
}

// FetchRows returns the row batch for the sheet URL. The public CSV export
// is tried first; on failure the authenticated API takes over unless
// PublicOnly is set.
func (c *Client) FetchRows(ctx context.Context, sheetURL string) ([]*models.Row, error) {
	sheetID, err := ExtractSheetID(sheetURL)
	if err != nil {
		return nil, err
	}
	gid, _ := ExtractGID(sheetURL)

	rows, csvErr := c.fetchPublicCSV(ctx, sheetID, gid)
	if csvErr == nil {
		c.logger.WithField("rows", len(rows)).Info("Rows fetched via public CSV export")
		return rows, nil
	}
	c.logger.WithError(csvErr).Warn("Public CSV export unavailable, falling back to Sheets API")

	if c.config.PublicOnly {
		return nil, errors.SourceUnavailable(exportURL(sheetID, gid), csvErr).
			WithSuggestion("make the spreadsheet public or disable public-only mode")
	}

	rows, apiErr := c.fetchViaAPI(ctx, sheetID, "")
	if apiErr != nil {
		return nil, apiErr
	}
	c.logger.WithField("rows", len(rows)).Info("Rows fetched via Sheets API")
	return rows, nil
}

// FetchContracts reads the contracts tab by title and maps its columns onto
// Contract records. Rows missing every field are dropped; validation of
// individual fields is the projection engine's job.
func (c *Client) FetchContracts(ctx context.Context, sheetURL, tabTitle string) ([]*models.Contract, error) {
	sheetID, err := ExtractSheetID(sheetURL)
	if err != nil {
		return nil, err
	}
	if c.config.PublicOnly {
		c.logger.Info("Public-only mode: skipping contracts fetch")
		return nil, nil
	}

	rows, err := c.fetchViaAPI(ctx, sheetID, tabTitle)
	if err != nil {
		return nil, err
	}
	contracts := ContractsFromRows(rows)
	c.logger.WithFields(logger.Fields{
		"tab":       tabTitle,
		"contracts": len(contracts),
	}).Info("Contracts fetched")
	return contracts, nil
}

func exportURL(sheetID, gid string) string {
	u := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", sheetID)
	if gid != "" {
		u += "&gid=" + gid
	}
	return u
}

func (c *Client) fetchPublicCSV(ctx context.Context, sheetID, gid string) ([]*models.Row, error) {
	endpoint := exportURL(sheetID, gid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.SourceUnavailable(endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.SourceUnavailable(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.SourceUnavailable(endpoint,
			fmt.Errorf("export returned status %d", resp.StatusCode))
	}

	return RowsFromCSV(resp.Body)
}

func (c *Client) fetchViaAPI(ctx context.Context, sheetID, tabTitle string) ([]*models.Row, error) {
	srv, err := c.sheetsService(ctx)
	if err != nil {
		return nil, err
	}

	readRange := "A:Z"
	if tabTitle != "" {
		readRange = fmt.Sprintf("'%s'!A:Z", tabTitle)
	}

	resp, err := srv.Spreadsheets.Values.Get(sheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, errors.SourceUnavailable("sheets.googleapis.com", err)
	}
	if len(resp.Values) == 0 {
		return nil, errors.New(errors.CategorySource, errors.CodeSheetNotFound,
			"spreadsheet tab is empty or inaccessible").
			WithContext("range", readRange)
	}

	return RowsFromValues(resp.Values), nil
}

func (c *Client) sheetsService(ctx context.Context) (*sheets.Service, error) {
	credsPath := c.config.CredentialsPath
	if credsPath == "" {
		credsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if credsPath == "" {
		credsPath = "credentials.json"
	}

	b, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, errors.SourceUnavailable("sheets.googleapis.com",
			fmt.Errorf("unable to read credentials file %s: %w", credsPath, err))
	}

	jwtConfig, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, errors.SourceUnavailable("sheets.googleapis.com",
			fmt.Errorf("unable to parse service-account credentials: %w", err))
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, errors.SourceUnavailable("sheets.googleapis.com", err)
	}
	return srv, nil
}

// RowsFromCSV materializes a row batch from CSV text. The first record is
// the shared header set; fully empty rows are dropped.
func RowsFromCSV(r io.Reader) ([]*models.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategorySource, errors.CodeInvalidFormat,
			"could not parse the CSV export")
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]*models.Row, 0, len(records)-1)
	for i, record := range records[1:] {
		cells := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(record) {
				cells[header] = strings.TrimSpace(record[j])
			}
		}
		row := models.NewRow(headers, cells, i)
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// RowsFromValues materializes a row batch from a Sheets API values range.
func RowsFromValues(values [][]interface{}) []*models.Row {
	if len(values) == 0 {
		return nil
	}

	headers := make([]string, len(values[0]))
	for i, v := range values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprint(v))
	}

	rows := make([]*models.Row, 0, len(values)-1)
	for i, record := range values[1:] {
		cells := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(record) {
				cells[header] = strings.TrimSpace(fmt.Sprint(record[j]))
			}
		}
		row := models.NewRow(headers, cells, i)
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
	return rows
}

// Contract sheet column candidates, matched as folded substrings.
var contractColumns = map[string][]string{
	"proposal_id": {"proposta"},
	"installment": {"valor da parcela", "parcela", "valor"},
	"start_date":  {"1ª data vencimento", "1a data vencimento", "primeira data"},
	"end_date":    {"ult data venc", "ultima data"},
	"type":        {"tipo"},
}

// ContractsFromRows maps contract tab rows onto Contract records using the
// known column spellings. Rows with every field blank are dropped.
func ContractsFromRows(rows []*models.Row) []*models.Contract {
	if len(rows) == 0 {
		return nil
	}

	headers := rows[0].Headers
	find := func(candidates []string) string {
		for _, candidate := range candidates {
			for _, header := range headers {
				if normalize.ContainsFolded(header, candidate) {
					return header
				}
			}
		}
		return ""
	}

	proposalCol := find(contractColumns["proposal_id"])
	installmentCol := find(contractColumns["installment"])
	startCol := find(contractColumns["start_date"])
	endCol := find(contractColumns["end_date"])
	typeCol := find(contractColumns["type"])

	contracts := make([]*models.Contract, 0, len(rows))
	for _, row := range rows {
		contract := &models.Contract{
			ProposalID:       row.Get(proposalCol),
			InstallmentValue: row.Get(installmentCol),
			StartDate:        row.Get(startCol),
			EndDate:          row.Get(endCol),
			ContractType:     row.Get(typeCol),
		}
		if contract.ProposalID == "" && contract.InstallmentValue == "" &&
			contract.StartDate == "" && contract.EndDate == "" && contract.ContractType == "" {
			continue
		}
		contracts = append(contracts, contract)
	}
	return contracts
}
