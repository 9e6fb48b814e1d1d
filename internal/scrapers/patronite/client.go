package patronite

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"patronite-snapshot/internal/assert"
	"patronite-snapshot/internal/restyutil"
	"patronite-snapshot/internal/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_client_fetch = "client.fetch"
)

var tracer = otel.Tracer("patronite-snapshot.scrapers.patronite")

// PageSource fetches one page of a listing.
//
// note: fault injection point
type PageSource interface {
	// Fetch returns the parsed document at `path` with `page=<page>` added to its query.
	// Every failure to obtain the page is a *TransportError.
	Fetch(ctx context.Context, path string, page int) (*goquery.Document, error)
}

// TransportError is returned when a page could not be fetched, Status is 0 when
// no response was received at all.
type TransportError struct {
	Url    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: HTTP %d", e.Url, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Url, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PageUrl adds (or replaces) the `page` query parameter of a site relative path.
func PageUrl(path string, page int) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

type ClientOptions struct {
	Origin           string
	UserAgent        string
	Timeout          time.Duration
	CloudflareBypass bool
	// Dump receives the full text of every exchange, it can be nil.
	Dump restyutil.InstrumentOutput
}

// Client is the PageSource backed by the live site.
type Client struct {
	http  *resty.Client
	tel   telemetry.API
	pages metric.Int64Counter
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("patronite", tel)

	origin, err := url.Parse(opts.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("origin must be absolute, got %q", opts.Origin)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(origin.String())
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(origin.Hostname()))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, opts.Dump)

	pages, err := otel.Meter("patronite-snapshot").Int64Counter(
		"patronite.pages_fetched",
		metric.WithDescription("listing pages fetched"),
	)
	if err != nil {
		return nil, err
	}

	return &Client{http: httpClient, tel: tel, pages: pages}, nil
}

func (c *Client) Fetch(ctx context.Context, path string, page int) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	endpoint, err := PageUrl(path, page)
	if err != nil {
		err = &TransportError{Url: path, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid path")
		c.tel.ReportBroken(report_client_fetch, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("url", endpoint))

	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		err = &TransportError{Url: endpoint, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportBroken(report_client_fetch, err)
		return nil, err
	}
	if !res.IsSuccess() {
		err = &TransportError{Url: endpoint, Status: res.StatusCode()}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		c.tel.ReportBroken(report_client_fetch, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		err = &TransportError{Url: endpoint, Status: res.StatusCode(), Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreadable body")
		c.tel.ReportBroken(report_client_fetch, err)
		return nil, err
	}

	c.pages.Add(ctx, 1)
	return doc, nil
}
