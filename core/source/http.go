package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/xml"
)

// DefaultMaxBytes caps a downloaded document. The largest published label
// linkbases are a few tens of megabytes.
const DefaultMaxBytes = 128 << 20

// HTTP fetches remote locators over the network.
type HTTP struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTP returns an HTTP source whose requests time out after timeout.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxBytes,
	}
}

func (h *HTTP) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

// Fetch downloads and parses the document at locator.
func (h *HTTP) Fetch(ctx context.Context, locator string) (*xml.Document, error) {
	if !IsRemote(locator) {
		return nil, errors.NewValidation("locator", fmt.Sprintf("not an http(s) URL: %s", locator))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", locator)
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return nil, errors.NewIO("fetch", locator, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, errors.NewNotFound("document", locator)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.NewIO("fetch", locator, fmt.Errorf("unexpected status %s", resp.Status))
	}

	limit := h.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	doc, err := xml.ParseReader(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Path: locator, Message: err.Error(), Err: err}
	}
	return doc, nil
}

// Exists issues a HEAD request for locator.
func (h *HTTP) Exists(ctx context.Context, locator string) (bool, error) {
	if !IsRemote(locator) {
		return false, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, locator, nil)
	if err != nil {
		return false, errors.Wrapf(err, "build request for %s", locator)
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return false, errors.NewIO("fetch", locator, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	default:
		return false, errors.NewIO("fetch", locator, fmt.Errorf("unexpected status %s", resp.Status))
	}
}
