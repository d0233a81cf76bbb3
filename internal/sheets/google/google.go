package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"healthdash/internal/engine"
	"healthdash/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// lastColumn is the column of the last Header cell.
const lastColumn = "O"

// Transient API failures are retried maxAttempts times in total, waiting
// retryDelay, then twice as long, between tries.
const (
	maxAttempts       = 4
	defaultRetryDelay = 500 * time.Millisecond
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string // base name; the year of each day is prefixed
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	retryDelay    time.Duration
	now           func() time.Time
}

// Ensure interface conformance
var _ sheets.SummaryWriter = (*Client)(nil)

// New creates a Sheets client from service account credentials. Extra options
// are appended after the credentials.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Daily"
	}

	creds, err := credentialsJSON(ctx, cfg)
	if err != nil {
		return nil, err
	}

	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()),
	}, opts...)
	return newClient(ctx, spreadsheetID, base, all...)
}

func newClient(ctx context.Context, spreadsheetID, base string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     base,
		retryDelay:    defaultRetryDelay,
		now:           time.Now,
	}, nil
}

// credentialsJSON prefers inline JSON over the file, then falls back to
// GOOGLE_APPLICATION_CREDENTIALS.
func credentialsJSON(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling creates an HTTP client optimized for Google Sheets API
// with connection pooling, proper timeouts, and keep-alive settings
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		// Connection pooling settings
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// ExportDay writes the summary row for the user's day into "<year> <base>",
// overwriting the row whose key matches and appending otherwise. An empty
// sheet gets the header first.
func (c *Client) ExportDay(ctx context.Context, userID string, day time.Time, s engine.DailySummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if userID == "" {
		return "", errors.New("missing user id")
	}

	sheet := yearPrefixedName(c.sheetBase, day.Year())
	keys, err := c.readKeys(ctx, sheet)
	if isMissingSheet(err) {
		slog.InfoContext(ctx, "Creating summary sheet", "sheet", sheet)
		if err := c.addSheet(ctx, sheet); err != nil {
			return "", err
		}
		keys, err = nil, nil
	}
	if err != nil {
		return "", err
	}

	if len(keys) == 0 {
		if err := c.writeRow(ctx, sheet, 1, sheets.Header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		keys = []string{"Key"}
	}

	key := sheets.RowKey(userID, day)
	rowNum := indexOf(keys, key) + 1
	if rowNum == 0 {
		rowNum = len(keys) + 1
	}

	row := sheets.BuildRow(userID, day, s, c.now())
	if err := c.writeRow(ctx, sheet, rowNum, row); err != nil {
		return "", err
	}
	return rowRange(sheet, rowNum), nil
}

func (c *Client) readKeys(ctx context.Context, sheet string) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	var resp *gsheet.ValueRange
	err := c.withRetry(ctx, "read keys", func() (err error) {
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read keys of %s: %w", sheet, err)
	}
	keys := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			keys[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return keys, nil
}

func (c *Client) addSheet(ctx context.Context, sheet string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheet},
			},
		}},
	}
	err := c.withRetry(ctx, "add sheet", func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return nil
}

// isMissingSheet reports whether the API rejected a range because its tab
// does not exist yet.
func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func (c *Client) writeRow(ctx context.Context, sheet string, rowNum int, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	err := c.withRetry(ctx, "write row", func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(sheet, rowNum), vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update row %d in sheet %s: %w", rowNum, sheet, err)
	}
	return nil
}

// withRetry runs call until it succeeds, fails permanently, runs out of
// attempts or ctx ends. Rate limits and server errors back off exponentially.
func (c *Client) withRetry(ctx context.Context, op string, call func() error) error {
	delay := c.retryDelay
	for attempt := 1; ; attempt++ {
		err := call()
		if err == nil || attempt == maxAttempts || sheets.Permanent(err) || ctx.Err() != nil {
			return err
		}
		slog.WarnContext(ctx, "Sheets call failed, retrying",
			"op", op,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		delay *= 2
	}
}

func rowRange(sheet string, rowNum int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, rowNum, lastColumn, rowNum)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if v == target {
			return i
		}
	}
	return -1
}
