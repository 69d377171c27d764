// Package export mirrors ledger transactions into a Google spreadsheet.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"famledger/internal/core"
)

// TransactionWriter appends one transaction row to an external sheet and
// returns a reference to where it landed.
type TransactionWriter interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) (string, error)
}

// OverviewWriter refreshes the per-month totals block on the overview
// sheet. Optional; writers that only journal transactions skip it.
type OverviewWriter interface {
	WriteMonthOverview(ctx context.Context, ov MonthOverview) error
}

// MonthOverview is one overview row: totals for a single calendar month.
type MonthOverview struct {
	Year        int
	Month       time.Month
	Income      core.Money
	Expenses    core.Money
	SavingsRate float64
}

// Options carries OAuth material and sheet coordinates. Inline JSON
// takes precedence over file paths.
type Options struct {
	SpreadsheetID string
	SheetName     string
	ClientFile    string
	ClientJSON    string
	TokenFile     string
	TokenJSON     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var (
	_ TransactionWriter = (*Client)(nil)
	_ OverviewWriter    = (*Client)(nil)
)

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = "Transactions"
	}

	clientBytes, err := readMaterial(opts.ClientJSON, opts.ClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(clientBytes, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}

	tokenBytes, err := readMaterial(opts.TokenJSON, opts.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenBytes, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func readMaterial(inline, file string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		return os.ReadFile(file)
	default:
		return nil, errors.New("neither inline JSON nor file path provided")
	}
}

// AppendTransaction writes one row per installment record:
// id, date, type, description, category, amount, installment position,
// status. USER_ENTERED keeps amounts numeric on the sheet side.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		tx.ID,
		tx.Date.Format("2006-01-02"),
		string(tx.Type),
		tx.Description,
		tx.Category,
		tx.Amount.Units(),
		fmt.Sprintf("%d/%d", tx.CurrentInstallment, tx.TotalInstallments),
		string(tx.Status),
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, fmt.Sprintf("%s!A:H", c.sheetName), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return fmt.Sprintf("%s!A:H", c.sheetName), nil
}

// WriteMonthOverview overwrites the month's row on the year's overview
// sheet: month, income, expenses, net, savings rate. Row 1 is the
// header, so month N lives on row N+1.
func (c *Client) WriteMonthOverview(ctx context.Context, ov MonthOverview) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if ov.Month < time.January || ov.Month > time.December {
		return fmt.Errorf("invalid month: %d", ov.Month)
	}

	sheetName := fmt.Sprintf("%d Overview", ov.Year)
	row := int(ov.Month) + 1
	net := core.Money{Cents: ov.Income.Cents - ov.Expenses.Cents}
	vr := &gsheet.ValueRange{Values: [][]any{{
		ov.Month.String(),
		ov.Income.Units(),
		ov.Expenses.Units(),
		net.Units(),
		ov.SavingsRate,
	}}}

	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, fmt.Sprintf("%s!A%d:E%d", sheetName, row, row), vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update overview %s row %d: %w", sheetName, row, err)
	}
	return nil
}
