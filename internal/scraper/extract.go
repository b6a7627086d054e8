// Package scraper extracts the platform's service token from rendered pages.
package scraper

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"vidarr/internal/domain/regex"
	"vidarr/internal/errs"
	"vidarr/internal/utils/logging"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// PageExtractor loads a platform page and harvests the embedded service
// token. It satisfies the renderer contract used by the token manager.
type PageExtractor struct {
	cookieManager *CookieManager
	timeout       time.Duration
}

// New returns a new PageExtractor instance.
func New(timeout time.Duration) *PageExtractor {
	return &PageExtractor{
		cookieManager: NewCookieManager(),
		timeout:       timeout,
	}
}

// ExtractToken visits pageURL and returns the first valid token found in
// the page body, its script tags, or hidden form fields.
func (pe *PageExtractor) ExtractToken(ctx context.Context, pageURL string) (string, error) {
	collector, err := pe.initializeCollector(ctx, pageURL)
	if err != nil {
		return "", err
	}

	var (
		token    string
		visitErr error
	)

	collector.OnResponse(func(r *colly.Response) {
		body := string(r.Body)

		// Raw body patterns first; cheapest and usually sufficient.
		if t := matchTokenSources(body); t != "" {
			token = t
			return
		}

		// Individual script tags.
		if t := extractFromScripts(body); t != "" {
			token = t
			return
		}

		// Hidden input fields as a last resort.
		if t := parseHiddenToken(body); t != "" {
			token = t
		}
	})

	logging.I("Extracting service token from %q...", pageURL)

	if err := collector.Visit(pageURL); err != nil {
		visitErr = fmt.Errorf("error visiting webpage %q: %w", pageURL, err)
	}
	collector.Wait()

	if visitErr != nil {
		return "", visitErr
	}

	if token == "" {
		return "", errs.ErrTokenNotFound
	}

	logging.S("Extracted token: %s...", token[:10])
	return token, nil
}

// initializeCollector initializes Colly with any browser cookies.
func (pe *PageExtractor) initializeCollector(ctx context.Context, urlStr string) (*colly.Collector, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	cookies, err := pe.cookieManager.GetCookies(ctx, urlStr)
	if err != nil {
		logging.W("No browser cookies available for %q: %v", parsedURL.Host, err)
	} else if len(cookies) > 0 {
		jar.SetCookies(parsedURL, cookies)
	}

	collector := colly.NewCollector()
	collector.SetRequestTimeout(pe.timeout)
	collector.SetCookieJar(jar)

	return collector, nil
}

// matchTokenSources applies the token source patterns in order.
func matchTokenSources(body string) string {
	for _, pattern := range regex.TokenSources {
		if m := pattern.FindStringSubmatch(body); m != nil {
			if regex.TokenFormat.MatchString(m[1]) {
				return m[1]
			}
		}
	}
	return ""
}

// extractFromScripts scans each script tag's content separately.
func extractFromScripts(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var token string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := matchTokenSources(s.Text()); t != "" {
			token = t
			return false
		}
		return true
	})
	return token
}

// parseHiddenToken parses the HTML body to find a hidden token input field.
func parseHiddenToken(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var (
		token string
		f     func(*html.Node)
	)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			var name, value string
			for _, attr := range n.Attr {
				if attr.Key == "name" {
					name = attr.Val
				}
				if attr.Key == "value" {
					value = attr.Val
				}
			}
			if (name == "_token" || name == "token") && regex.TokenFormat.MatchString(value) {
				token = value
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	return token
}
