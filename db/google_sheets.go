package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleCredentials selects the service account key for the Sheets client.
// KeyPath wins over KeyBase64 when both are set.
type GoogleCredentials struct {
	KeyPath   string
	KeyBase64 string
}

// ClientOptions converts the credentials into Google API client options.
func (c GoogleCredentials) ClientOptions() ([]option.ClientOption, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case c.KeyPath != "":
		opts = append(opts, option.WithCredentialsFile(c.KeyPath))
	case c.KeyBase64 != "":
		key, err := decodeServiceAccountKey(c.KeyBase64)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(key))
	default:
		return nil, errors.New("no service account key configured")
	}
	return opts, nil
}

// decodeServiceAccountKey strips whitespace (keys are often pasted wrapped)
// before base64-decoding.
func decodeServiceAccountKey(encoded string) ([]byte, error) {
	clean := strings.Join(strings.Fields(encoded), "")
	key, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decoding service account key: %w", err)
	}
	return key, nil
}

// GoogleSheetsStore is a RangeStore backed by the Google Sheets v4 API
type GoogleSheetsStore struct {
	Service       *sheets.Service
	SpreadsheetID string
	Logger        *zap.Logger
}

// NewGoogleSheetsStore creates a Sheets API client for one spreadsheet.
func NewGoogleSheetsStore(ctx context.Context, spreadsheetID string, creds GoogleCredentials, logger *zap.Logger) (*GoogleSheetsStore, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id cannot be empty")
	}
	opts, err := creds.ClientOptions()
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("google sheets client ready", zap.String("spreadsheet", spreadsheetID))
	return &GoogleSheetsStore{Service: svc, SpreadsheetID: spreadsheetID, Logger: logger}, nil
}

func (g *GoogleSheetsStore) Get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := g.Service.Spreadsheets.Values.Get(g.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (g *GoogleSheetsStore) Append(ctx context.Context, rng string, values [][]interface{}) error {
	body := &sheets.ValueRange{Values: values}
	_, err := g.Service.Spreadsheets.Values.Append(g.SpreadsheetID, rng, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append %d row(s) to %s: %w", len(values), rng, err)
	}
	g.Logger.Debug("appended rows", zap.String("range", rng), zap.Int("rows", len(values)))
	return nil
}
