package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets is a Store over one Google spreadsheet: one worksheet per table.
// The Sheets API has no compare-and-swap, so versions are content hashes
// taken at read time and re-checked immediately before the rewrite. That
// leaves a small race window, which matches the advisory guarantee the
// backend can actually offer.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	timeout       time.Duration
}

func NewSheets(ctx context.Context, spreadsheetID, credentialsFile string, timeout time.Duration) (*Sheets, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID, timeout: timeout}, nil
}

func (s *Sheets) ReadAll(ctx context.Context, name string) (Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var resp *sheets.ValueRange
	err := s.retry(ctx, func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.
			Get(s.spreadsheetID, rangeFor(name)).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		if isMissingSheet(err) {
			return Table{}, ErrTableNotFound
		}
		return Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	t := tableFromValues(resp.Values)
	t.Version = hashTable(t)
	return t, nil
}

func (s *Sheets) WriteAll(ctx context.Context, name string, t Table, expect string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.ensureSheet(ctx, name)
	if err != nil {
		return err
	}
	if exists && expect != "" {
		cur, err := s.svc.Spreadsheets.Values.
			Get(s.spreadsheetID, rangeFor(name)).
			Context(ctx).Do()
		if err != nil && !isMissingSheet(err) {
			return fmt.Errorf("version check %s: %w", name, err)
		}
		if err == nil {
			curTable := tableFromValues(cur.Values)
			if hashTable(curTable) != expect {
				return ErrStaleWrite
			}
		}
	}

	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			cells[i] = c
		}
		values = append(values, cells)
	}

	return s.retry(ctx, func() error {
		if _, err := s.svc.Spreadsheets.Values.
			Clear(s.spreadsheetID, rangeFor(name), &sheets.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return err
		}
		_, err := s.svc.Spreadsheets.Values.
			Update(s.spreadsheetID, name+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").
			Context(ctx).Do()
		return err
	})
}

func (s *Sheets) Clear(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.retry(ctx, func() error {
		_, err := s.svc.Spreadsheets.Values.
			Clear(s.spreadsheetID, rangeFor(name), &sheets.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
	if isMissingSheet(err) {
		return ErrTableNotFound
	}
	return err
}

func (s *Sheets) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var meta *sheets.Spreadsheet
	err := s.retry(ctx, func() error {
		var err error
		meta, err = s.svc.Spreadsheets.Get(s.spreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return names, nil
}

// ensureSheet adds the worksheet when missing. Returns whether it already
// existed.
func (s *Sheets) ensureSheet(ctx context.Context, name string) (bool, error) {
	names, err := s.ListTables(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	err = s.retry(ctx, func() error {
		_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	return false, err
}

// retry wraps a Sheets call with capped exponential backoff on rate-limit
// and transient server errors. The source dashboard slept blindly between
// calls; this makes the policy deliberate.
func (s *Sheets) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if gerr, ok := err.(*googleapi.Error); ok {
			switch gerr.Code {
			case 429, 500, 503:
				return err // retryable
			}
		}
		return backoff.Permanent(err)
	}, policy)
}

func rangeFor(name string) string {
	return fmt.Sprintf("'%s'!A:ZZ", strings.ReplaceAll(name, "'", ""))
}

func isMissingSheet(err error) bool {
	gerr, ok := err.(*googleapi.Error)
	if !ok {
		return false
	}
	// The values API reports an unknown worksheet as an unparseable range.
	return gerr.Code == 400 && strings.Contains(gerr.Message, "Unable to parse range")
}

func tableFromValues(values [][]interface{}) Table {
	var t Table
	for i, row := range values {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.TrimSpace(fmt.Sprint(c))
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func hashTable(t Table) string {
	h := sha256.New()
	writeRow := func(cells []string) {
		for _, c := range cells {
			h.Write([]byte(c))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	writeRow(t.Header)
	for _, r := range t.Rows {
		writeRow(r)
	}
	return hex.EncodeToString(h.Sum(nil))
}
