package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client implements Backend on top of the Google Sheets v4 API.
type Client struct {
	service *sheets.Service
}

func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	return newClient(ctx, option.WithCredentialsFile(credentialsFile))
}

// NewClientFromJSON builds a client from service account JSON held in memory.
func NewClientFromJSON(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	return newClient(ctx, option.WithCredentialsJSON(credentialsJSON))
}

func newClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
	}, nil
}

func (c *Client) spreadsheet(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error) {
	if spreadsheetID == "" {
		return nil, ErrMissingSpreadsheetID
	}
	resp, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, newTransportError("get spreadsheet", spreadsheetID, err)
	}
	return resp, nil
}

func (c *Client) ResolveSheet(ctx context.Context, spreadsheetID, sheetName string) (SheetRef, error) {
	props, err := c.sheetProperties(ctx, spreadsheetID, sheetName)
	if err != nil {
		return SheetRef{}, err
	}
	return SheetRef{SpreadsheetID: spreadsheetID, SheetName: props.Title}, nil
}

func (c *Client) sheetProperties(ctx context.Context, spreadsheetID, sheetName string) (*sheets.SheetProperties, error) {
	ss, err := c.spreadsheet(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	name := strings.Trim(sheetName, "'")
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		if name == "" || sh.Properties.Title == name {
			return sh.Properties, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: spreadsheet %s has no sheets", ErrSheetNotFound, spreadsheetID)
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

func (c *Client) GetRows(ctx context.Context, ref SheetRef) ([][]string, error) {
	readRange := ref.Range("")
	resp, err := c.service.Spreadsheets.Values.Get(ref.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, newTransportError("read sheet", readRange, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				rows[i][j] = fmt.Sprintf("%v", cell)
			}
		}
	}
	log.Debug().Str("range", readRange).Int("rows", len(rows)).Msg("Read sheet rows")
	return rows, nil
}

func (c *Client) InsertDimension(ctx context.Context, ref SheetRef, startIndex, endIndex int, inheritFromBefore bool) error {
	props, err := c.sheetProperties(ctx, ref.SpreadsheetID, ref.SheetName)
	if err != nil {
		return err
	}

	req := &sheets.Request{
		InsertDimension: &sheets.InsertDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    props.SheetId,
				Dimension:  "ROWS",
				StartIndex: int64(startIndex),
				EndIndex:   int64(endIndex),
				// sheetId and startIndex are commonly 0.
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
			InheritFromBefore: inheritFromBefore,
		},
	}
	_, err = c.service.Spreadsheets.BatchUpdate(ref.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{req},
	}).Context(ctx).Do()
	if err != nil {
		return newTransportError("insert rows", ref.Range(fmt.Sprintf("%d:%d", startIndex+1, endIndex)), err)
	}
	return nil
}

func (c *Client) WriteValues(ctx context.Context, ref SheetRef, rangeA1 string, values [][]string, opt ValueInputOption) error {
	valueRange := &sheets.ValueRange{
		Values: toInterfaces(values),
	}

	writeRange := ref.Range(rangeA1)
	_, err := c.service.Spreadsheets.Values.Update(ref.SpreadsheetID, writeRange, valueRange).
		ValueInputOption(string(opt)).
		Context(ctx).
		Do()
	if err != nil {
		return newTransportError("update range", writeRange, err)
	}

	return nil
}

func (c *Client) ClearValues(ctx context.Context, ref SheetRef, rangeA1 string) error {
	clearRange := ref.Range(rangeA1)
	_, err := c.service.Spreadsheets.Values.Clear(ref.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return newTransportError("clear range", clearRange, err)
	}
	return nil
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}

var _ Backend = (*Client)(nil)
