// Package sheets keeps the invoice ledger and the DATEV booking journal in
// a Google Sheets spreadsheet, one worksheet each.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"invoicegen/internal/logger"
)

var (
	// ErrInvalidSheetURL is returned when no spreadsheet ID can be found in
	// the configured URL.
	ErrInvalidSheetURL = errors.New("invalid Google Sheets URL format")

	// ErrMissingCredentials is returned when neither credential variable is
	// set.
	ErrMissingCredentials = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")

	// ErrRecordNotFound is returned when a referenced row does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrSheetNotFound is returned when a worksheet is missing.
	ErrSheetNotFound = errors.New("worksheet not found")
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// grid is the worksheet access the ledger and the journal need. Rows are
// 1-based sheet rows; row 1 holds the headers.
type grid interface {
	EnsureSheet(ctx context.Context, sheet string, headers []string) error
	Rows(ctx context.Context, sheet string, columns int) ([][]interface{}, error)
	Append(ctx context.Context, sheet string, rows [][]interface{}) error
	UpdateRow(ctx context.Context, sheet string, row int, values []interface{}) error
	DeleteRows(ctx context.Context, sheet string, rows []int) error
}

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

var _ grid = (*Service)(nil)

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	// Extract spreadsheet ID from URL
	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	// Get Google credentials
	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCredentials)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	return NewSheetsServiceWithOptions(ctx, spreadsheetID, option.WithHTTPClient(config.Client(ctx)))
}

// NewSheetsServiceWithOptions creates a service for a known spreadsheet ID
// with explicit client options.
func NewSheetsServiceWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Service, error) {
	const op = "NewSheetsServiceWithOptions"

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           logger.WithComponent("sheets"),
	}, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", ErrInvalidSheetURL
	}
	return matches[1], nil
}

// columnName converts a 1-based column index to its letter, e.g. 16 -> "P".
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

// EnsureSheet ensures the sheet exists and has headers
func (s *Service) EnsureSheet(ctx context.Context, sheetName string, headers []string) error {
	const op = "EnsureSheet"

	sheetID, err := s.sheetID(ctx, sheetName)
	if errors.Is(err, ErrSheetNotFound) {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}
		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	} else if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Check if headers exist
	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, columnName(len(headers)))
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.sheetsService.Spreadsheets.Values.Update(s.spreadsheetID, headerRange, valueRange).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := s.formatHeaders(ctx, sheetID, len(headers)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}
	return nil
}

// formatHeaders makes the header row bold and applies basic formatting
func (s *Service) formatHeaders(ctx context.Context, sheetID int64, columns int) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}

// sheetID looks up the numeric ID of a worksheet
func (s *Service) sheetID(ctx context.Context, sheetName string) (int64, error) {
	const op = "sheetID"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%s: %q: %w", op, sheetName, ErrSheetNotFound)
}

// Rows reads all rows of a worksheet, headers included
func (s *Service) Rows(ctx context.Context, sheetName string, columns int) ([][]interface{}, error) {
	const op = "Rows"

	rangeSpec := fmt.Sprintf("%s!A:%s", sheetName, columnName(columns))
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Read range from spreadsheet")

	return resp.Values, nil
}

// Append adds rows below the last used row
func (s *Service) Append(ctx context.Context, sheetName string, rows [][]interface{}) error {
	const op = "Append"

	_, err := s.sheetsService.Spreadsheets.Values.Append(s.spreadsheetID, sheetName+"!A1", &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("rows_written", len(rows)).
		Msg("Appended rows to Google Sheet")

	return nil
}

// UpdateRow overwrites one row starting at column A
func (s *Service) UpdateRow(ctx context.Context, sheetName string, row int, values []interface{}) error {
	const op = "UpdateRow"

	rangeSpec := fmt.Sprintf("%s!A%d", sheetName, row)
	_, err := s.sheetsService.Spreadsheets.Values.Update(s.spreadsheetID, rangeSpec, &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to update %s: %w", op, rangeSpec, err)
	}
	return nil
}

// DeleteRows removes rows; later rows move up
func (s *Service) DeleteRows(ctx context.Context, sheetName string, rows []int) error {
	const op = "DeleteRows"

	if len(rows) == 0 {
		return nil
	}
	sheetID, err := s.sheetID(ctx, sheetName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// bottom-up, so earlier deletions do not shift later indices
	sorted := append([]int(nil), rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	requests := make([]*sheets.Request, 0, len(sorted))
	for _, row := range sorted {
		requests = append(requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		})
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to delete rows: %w", op, err)
	}

	s.log.Info().Str("sheet", sheetName).Ints("rows", rows).Msg("Deleted rows from Google Sheet")
	return nil
}
