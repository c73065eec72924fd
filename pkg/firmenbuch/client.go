// Package firmenbuch provides a client for the Firmenbuch document web
// service behind JustizOnline. The service is SOAP shaped: SUCHEURKUNDE
// lists the filed documents of a company, URKUNDE returns one document's
// content.
package firmenbuch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production service address.
const DefaultBaseURL = "https://justizonline.gv.at/jop/api/at.gv.justiz.fbw/ws"

// Client defines the Firmenbuch document operations.
type Client interface {
	// SearchDocuments lists the filed documents of a company.
	SearchDocuments(ctx context.Context, fnr string) ([]Document, error)
	// FetchDocument returns the raw content of a document by its key.
	FetchDocument(ctx context.Context, key string) ([]byte, error)
}

// Document is one entry from a SUCHEURKUNDE result list.
type Document struct {
	Key  string `xml:"KEY"`
	Name string `xml:"BEZEICHNUNG"`
	Date string `xml:"DATUM"`
}

// IsXML reports whether the document key points at a structured XML filing
// rather than a scanned PDF.
func (d Document) IsXML() bool {
	return strings.HasSuffix(d.Key, "XML")
}

// FilterXML keeps only the structured XML filings of a result list.
func FilterXML(docs []Document) []Document {
	var out []Document
	for _, d := range docs {
		if d.IsXML() {
			out = append(out, d)
		}
	}
	return out
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom service address (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. The service throttles
// aggressively, so callers doing bulk imports should set this.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Firmenbuch client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const envelope = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body>%s</soap:Body></soap:Envelope>`

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// call posts a SOAP body and returns the response bytes, retrying transient
// failures with exponential backoff.
func (c *httpClient) call(ctx context.Context, body string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "firmenbuch: rate limit wait")
		}
	}

	payload := fmt.Sprintf(envelope, body)

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "firmenbuch: create request")
		}
		req.Header.Set("X-API-KEY", c.apiKey)
		req.Header.Set("Content-Type", "application/soap+xml;charset=UTF-8")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, eris.Wrap(lastErr, "firmenbuch: request failed")
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "firmenbuch: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("firmenbuch: status %d: %s", resp.StatusCode, string(respBody))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("firmenbuch: unexpected status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}

	return nil, eris.Wrap(lastErr, "firmenbuch: request failed")
}

type searchResponse struct {
	Results []Document `xml:"Body>SUCHEURKUNDEResponse>ERGEBNIS"`
}

func (c *httpClient) SearchDocuments(ctx context.Context, fnr string) ([]Document, error) {
	body, err := c.call(ctx, fmt.Sprintf(`<SUCHEURKUNDE><FNR>%s</FNR></SUCHEURKUNDE>`, xmlEscape(fnr)))
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "firmenbuch: unmarshal search response")
	}
	return parsed.Results, nil
}

type urkundeResponse struct {
	Content string `xml:"Body>URKUNDEResponse>DOKUMENT>CONTENT"`
}

func (c *httpClient) FetchDocument(ctx context.Context, key string) ([]byte, error) {
	body, err := c.call(ctx, fmt.Sprintf(`<URKUNDE><KEY>%s</KEY></URKUNDE>`, xmlEscape(key)))
	if err != nil {
		return nil, err
	}

	var parsed urkundeResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "firmenbuch: unmarshal document response")
	}
	if parsed.Content == "" {
		return nil, eris.Errorf("firmenbuch: empty document content for key %s", key)
	}

	// Content is base64Binary on the wire; some test fixtures embed plain XML.
	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parsed.Content)); err == nil {
		return decoded, nil
	}
	return []byte(parsed.Content), nil
}
