package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"pagewatch/config"
	"pagewatch/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// HTTPFetcher fetches raw HTML without running scripts. It ignores the
// browser wait hints and never produces an artifact.
type HTTPFetcher struct {
	client    *http.Client
	cfg       *config.FetcherConfig
	userAgent string
	logger    zerolog.Logger
}

func NewHTTPFetcher(cfg *config.FetcherConfig, logger *zerolog.Logger) *HTTPFetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; pagewatch/1.0)"
	}
	client := httpclient.NewHttpClient(cfg.MaxPages)
	// session cookies set during redirects (consent pages, geo splash) are kept
	if jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err == nil {
		client.Jar = jar
	}

	return &HTTPFetcher{
		client:    client,
		cfg:       cfg,
		userAgent: ua,
		logger:    logger.With().Str("component", "http_fetcher").Logger(),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("request %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, fmt.Errorf("request %s: status %d", req.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}

	html := string(body)
	if IsChallenge(doc.Find("title").First().Text(), html) {
		return Result{}, ErrChallenge
	}

	if req.Selector == "" {
		return Result{Content: html}, nil
	}
	return Result{Content: f.extract(doc, req.Selector)}, nil
}

// extract joins the outer HTML of every match. Invalid or unmatched
// selectors yield empty content.
func (f *HTTPFetcher) extract(doc *goquery.Document, selector string) string {
	var parts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		h, err := goquery.OuterHtml(s)
		if err != nil {
			f.logger.Debug().Err(err).Str("selector", selector).Msg("failed to render match")
			return
		}
		parts = append(parts, h)
	})

	if len(parts) == 0 {
		f.logger.Debug().Str("selector", selector).Msg("selector matched no elements")
	}
	return strings.Join(parts, "\n")
}
