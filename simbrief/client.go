// simbrief/client.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package simbrief downloads the most recently generated SimBrief flight
// plan for a user, in the X-Plane FMS format.
//
// SimBrief's API is two-stage: the fetcher endpoint returns JSON metadata
// about the user's latest OFP, including links to the flight plan in
// various simulator formats, and the plan itself is then downloaded from
// a second location.
package simbrief

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jct32/flightstream/log"
	"github.com/jct32/flightstream/util"

	"github.com/klauspost/compress/gzhttp"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL   = "https://www.simbrief.com"
	DefaultUserAgent = "flightstream"

	fetcherPath = "/api/xml.fetcher.php"
	planPath    = "/ofp/flightplans/"

	// Value of fetch.status when SimBrief has a flight plan for the user.
	successStatus = "Success"

	statusPath = "fetch.status"
	// The "xpe" download is the X-Plane 11/12 .fms file.
	linkPath = "fms_downloads.xpe.link"
)

var errNotUTF8 = errors.New("response body is not valid UTF-8")

// Client fetches flight plans from SimBrief. It holds no per-request
// state and may be used concurrently.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	timeout    time.Duration
	lg         *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each HTTP request. Zero, the default, means requests
// may take arbitrarily long.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

func WithLogger(lg *log.Logger) Option {
	return func(c *Client) { c.lg = lg }
}

// New returns a Client for the SimBrief service at baseURL; an empty
// baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("simbrief base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("simbrief base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("simbrief base url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		// Copy so that a client passed to WithHTTPClient isn't modified.
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// MetadataURL returns the fetcher endpoint URL for the given user.
func (c *Client) MetadataURL(username string) string {
	q := url.Values{}
	q.Set("username", username)
	q.Set("json", "1")
	return c.baseURL + fetcherPath + "?" + q.Encode()
}

// PlanURL returns the download URL for a link taken from the metadata.
func (c *Client) PlanURL(link string) string {
	return c.baseURL + planPath + link
}

// FetchFlightPlan returns the user's latest flight plan exactly as served
// by SimBrief. All failures are returned as a *FetchError.
func (c *Client) FetchFlightPlan(ctx context.Context, username string) ([]byte, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fetchError(ErrNoIdentity, "", nil)
	}

	metaURL := c.MetadataURL(username)
	c.lg.Debug("requesting flight plan metadata", slog.String("url", metaURL))

	resp, err := c.get(ctx, metaURL)
	if err != nil {
		return nil, fetchError(ErrMetadataTransport, "", err)
	}
	// SimBrief reports problems like an unknown user through fetch.status
	// along with a 4xx code, so the HTTP status isn't checked here.
	body, err := readText(resp)
	if err != nil {
		return nil, fetchError(ErrMetadataBodyUndecodable, "", err)
	}

	link, err := parseMetadata(body)
	if err != nil {
		return nil, err
	}

	planURL := c.PlanURL(link)
	c.lg.Debug("downloading flight plan", slog.String("url", planURL))

	resp, err = c.get(ctx, planURL)
	if err != nil {
		return nil, fetchError(ErrPlanTransport, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fetchError(ErrPlanTransport, resp.Status, nil)
	}
	plan, err := readText(resp)
	if err != nil {
		return nil, fetchError(ErrPlanBodyUndecodable, "", err)
	}

	c.lg.Debug("downloaded flight plan", slog.Int("bytes", len(plan)))
	return plan, nil
}

// parseMetadata extracts the X-Plane flight plan link from the fetcher
// response, checking that SimBrief reported success.
func parseMetadata(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		// Run it through encoding/json to get an error that says where
		// things went wrong.
		var v any
		err := util.UnmarshalJSONBytes(body, &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return "", fetchError(ErrMetadataParse, "", err)
	}

	status := gjson.GetBytes(body, statusPath)
	if status.Type != gjson.String {
		return "", fetchError(ErrMetadataMalformed, "status field not a string", nil)
	}
	if status.Str != successStatus {
		return "", fetchError(ErrRemoteRequestFailed, status.Str, nil)
	}

	lr := gjson.GetBytes(body, linkPath)
	if lr.Type != gjson.String {
		return "", fetchError(ErrMetadataMalformed, "link field not a string", nil)
	}
	link := strings.TrimSpace(strings.Trim(lr.Str, `"`))
	if link == "" {
		return "", fetchError(ErrMetadataMalformed, "link field is empty", nil)
	}
	return link, nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.httpClient.Do(req)
}

// readText reads and closes the response body, which must be UTF-8 text.
func readText(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, errNotUTF8
	}
	return body, nil
}
