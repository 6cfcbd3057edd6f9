// utils/google.go
package utils

import (
	"context"
	"fmt"

	"barberbot/config"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// googleOption builds the service-account client option shared by Sheets and Calendar.
func googleOption(scope string) ([]option.ClientOption, error) {
	creds := config.AppConfig.GoogleCredentialsJSON
	if creds == "" {
		return nil, fmt.Errorf("google: GOOGLE_CREDENTIALS_JSON is not set")
	}
	return []option.ClientOption{
		option.WithCredentialsJSON([]byte(creds)),
		option.WithScopes(scope),
	}, nil
}

// SheetsService initializes a Sheets v4 client.
func SheetsService(ctx context.Context) (*sheets.Service, error) {
	opts, err := googleOption(sheets.SpreadsheetsScope)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: error initializing sheets client: %w", err)
	}
	return svc, nil
}

// CalendarService initializes a Calendar v3 client.
func CalendarService(ctx context.Context) (*calendar.Service, error) {
	opts, err := googleOption(calendar.CalendarScope)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: error initializing calendar client: %w", err)
	}
	return svc, nil
}
