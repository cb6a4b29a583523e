// Package rdw reads APK (periodic vehicle inspection) expiration dates from the
// RDW open-data dataset vkij-7mwc.
package rdw

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/samvad-hq/openoverheid/pkg/async"
	"github.com/samvad-hq/openoverheid/pkg/httpclient"
	"github.com/samvad-hq/openoverheid/pkg/opendata"
)

// DefaultBaseURL is the examination-expiration dataset endpoint.
const DefaultBaseURL = "https://opendata.rdw.nl/resource/vkij-7mwc.json"

// Page selects a slice of the dataset through $limit and $offset.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) validate() error {
	if p.Limit < 0 || p.Offset < 0 {
		return fmt.Errorf("%w: limit and offset must not be negative (limit=%d offset=%d)", ErrInvalidArgument, p.Limit, p.Offset)
	}
	return nil
}

// InspectionClient queries the examination-expiration dataset.
type InspectionClient struct {
	req     *opendata.Requester
	baseURL string
	log     Logger
}

// NewInspectionClient creates a client owning its HTTP client.
func NewInspectionClient(opts ...Option) *InspectionClient {
	cfg := buildConfig(opts)
	return newInspectionClient(opendata.New(cfg.requesterOptions()...), cfg)
}

// NewInspectionClientWithClient creates a client borrowing client.
func NewInspectionClientWithClient(client httpclient.Client, opts ...Option) *InspectionClient {
	cfg := buildConfig(opts)
	return newInspectionClient(opendata.NewWithClient(client, cfg.requesterOptions()...), cfg)
}

func newInspectionClient(req *opendata.Requester, cfg config) *InspectionClient {
	return &InspectionClient{req: req, baseURL: cfg.baseURL, log: cfg.log}
}

// Close releases the HTTP client when this InspectionClient owns it.
func (c *InspectionClient) Close() error {
	if c == nil {
		return nil
	}
	return c.req.Close()
}

// PlateURL returns the query selecting the record for plate.
func (c *InspectionClient) PlateURL(plate LicensePlate) string {
	return c.baseURL + "?&$where=" + fieldLicensePlate + "='" + url.QueryEscape(plate.String()) + "'"
}

// ListURL returns the query for the server's default page.
func (c *InspectionClient) ListURL() string { return c.baseURL }

// PageURL returns the query for the given page.
func (c *InspectionClient) PageURL(p Page) string {
	return c.baseURL + "?$limit=" + strconv.Itoa(p.Limit) + "&$offset=" + strconv.Itoa(p.Offset)
}

// ExaminationExpiration returns the expiration date of plate. Hyphens and case are ignored.
func (c *InspectionClient) ExaminationExpiration(ctx context.Context, plate string) (civil.Date, error) {
	normalized, err := NormalizeLicensePlate(plate)
	if err != nil {
		return civil.Date{}, err
	}

	doc, err := c.req.Request(ctx, c.PlateURL(normalized))
	if err != nil {
		return civil.Date{}, fmt.Errorf("fetch examination expiration for %s: %w", normalized, err)
	}

	rows, err := decodeRows(doc)
	if err != nil {
		return civil.Date{}, fmt.Errorf("decode examination expiration for %s: %w", normalized, err)
	}
	if len(rows) == 0 {
		return civil.Date{}, fmt.Errorf("%w: %s", ErrNotFound, normalized)
	}

	raw, ok := expirationField(rows[0])
	if !ok {
		err := &FormatError{Field: fieldExpiration, Err: errors.New("field missing or not a string")}
		return civil.Date{}, fmt.Errorf("decode examination expiration for %s: %w", normalized, err)
	}
	c.log.DebugObj("examination expiration fetched", "rdw_lookup", map[string]any{
		"plate":      normalized.String(),
		"expiration": raw,
	})

	date, err := ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parse examination expiration for %s: %w", normalized, err)
	}
	return date, nil
}

// ExaminationExpirationAsync runs ExaminationExpiration on its own goroutine.
func (c *InspectionClient) ExaminationExpirationAsync(ctx context.Context, plate string) *async.Future[civil.Date] {
	return async.Go(ctx, func(ctx context.Context) (civil.Date, error) {
		return c.ExaminationExpiration(ctx, plate)
	})
}

// ExaminationExpirations fetches the server's default page without pagination parameters.
func (c *InspectionClient) ExaminationExpirations(ctx context.Context) (ExpirationMap, error) {
	return c.expirations(ctx, nil)
}

// ExaminationExpirationsAsync runs ExaminationExpirations on its own goroutine.
func (c *InspectionClient) ExaminationExpirationsAsync(ctx context.Context) *async.Future[ExpirationMap] {
	return async.Go(ctx, c.ExaminationExpirations)
}

// ExaminationExpirationsPage fetches limit records starting at offset.
func (c *InspectionClient) ExaminationExpirationsPage(ctx context.Context, limit, offset int) (ExpirationMap, error) {
	return c.expirations(ctx, &Page{Limit: limit, Offset: offset})
}

// ExaminationExpirationsPageAsync runs ExaminationExpirationsPage on its own goroutine.
func (c *InspectionClient) ExaminationExpirationsPageAsync(ctx context.Context, limit, offset int) *async.Future[ExpirationMap] {
	return async.Go(ctx, func(ctx context.Context) (ExpirationMap, error) {
		return c.ExaminationExpirationsPage(ctx, limit, offset)
	})
}

// ExaminationRecords returns the well-formed rows of a page without parsing dates.
// A nil page sends no pagination parameters.
func (c *InspectionClient) ExaminationRecords(ctx context.Context, page *Page) ([]ExaminationRecord, error) {
	target := c.ListURL()
	if page != nil {
		if err := page.validate(); err != nil {
			return nil, err
		}
		target = c.PageURL(*page)
	}

	doc, err := c.req.Request(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetch examination records: %w", err)
	}
	return decodeRecords(doc)
}

func (c *InspectionClient) expirations(ctx context.Context, page *Page) (ExpirationMap, error) {
	records, err := c.ExaminationRecords(ctx, page)
	if err != nil {
		return nil, err
	}
	out, err := buildExpirationMap(records)
	if err != nil {
		return nil, err
	}
	c.log.DebugObj("examination expirations fetched", "rdw_list", map[string]any{
		"records": len(records),
		"plates":  len(out),
	})
	return out, nil
}
