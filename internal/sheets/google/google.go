package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	plog "produtivo/internal/log"
	ports "produtivo/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	log           *plog.Logger
}

var _ ports.TransactionExporter = (*Client)(nil)

// Options configure the Sheets client. Credentials come from CredentialsJSON
// or, when empty, from the file at CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Logger          *plog.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts)
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	name := strings.TrimSpace(opts.SheetName)
	if name == "" {
		name = "Transactions"
	}
	logger := opts.Logger
	if logger == nil {
		logger = plog.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: id,
		sheetName:     name,
		log:           logger.WithComponent(plog.ComponentSheets),
	}, nil
}

func credentials(opts Options) ([]byte, error) {
	if j := strings.TrimSpace(opts.CredentialsJSON); j != "" {
		return []byte(j), nil
	}
	if f := strings.TrimSpace(opts.CredentialsFile); f != "" {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// Export appends the entry below the last row of the sheet.
func (c *Client) Export(ctx context.Context, e ports.Entry) (string, error) {
	if err := e.Transaction.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.log.DebugContext(ctx, "Appended transaction row",
		plog.FieldTransactionID, e.Transaction.ID,
		plog.FieldSheetsRef, ref)
	return ref, nil
}

// Update overwrites the row at ref, a range returned by Export.
func (c *Client) Update(ctx context.Context, ref string, e ports.Entry) (string, error) {
	if err := e.Transaction.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if !strings.Contains(ref, "!") {
		return "", fmt.Errorf("invalid row reference %q", ref)
	}

	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(e)}}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", ref, err)
	}
	if resp.UpdatedRange != "" {
		ref = resp.UpdatedRange
	}
	c.log.DebugContext(ctx, "Updated transaction row",
		plog.FieldTransactionID, e.Transaction.ID,
		plog.FieldSheetsRef, ref)
	return ref, nil
}

// EnsureHeader writes the header row when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:G1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheetName, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{ports.Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheetName, err)
	}
	return nil
}
