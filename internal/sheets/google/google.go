package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	ports "budget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configures the Sheets client. One of CredentialsJSON or
// CredentialsFile is required unless ClientOptions already carry
// authentication.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	// ClientOptions are passed to the Sheets service after the credentials.
	ClientOptions []goption.ClientOption
}

// Client writes month tabs into one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu   sync.Mutex
	tabs map[string]bool // known tab titles, filled lazily
}

var _ ports.BudgetSheetWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(creds))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets client ready", "spreadsheet_id", id)

	return &Client{svc: svc, spreadsheetID: id}, nil
}

// credentials resolves the service account key. Inline JSON wins over the file.
func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	case len(opts.ClientOptions) > 0:
		return nil, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// WriteMonth clears the month tab and writes the rendered sheet from A1.
// The tab is created on first use.
func (c *Client) WriteMonth(ctx context.Context, sheet ports.MonthSheet) error {
	if err := sheet.Period.Validate(); err != nil {
		return err
	}
	tab := ports.TabName(sheet.UserID, sheet.Period)
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	quoted := quoteTab(tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}

	vr := &gsheet.ValueRange{Values: ports.Rows(sheet)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoted+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Wrote month tab", "tab", tab, "rows", len(vr.Values))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tabs == nil {
		ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("read spreadsheet: %w", err)
		}
		c.tabs = make(map[string]bool, len(ss.Sheets))
		for _, s := range ss.Sheets {
			if s.Properties != nil {
				c.tabs[s.Properties.Title] = true
			}
		}
	}
	if c.tabs[tab] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	c.tabs[tab] = true
	return nil
}

// quoteTab returns tab as an A1 sheet reference.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
