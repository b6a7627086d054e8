package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"vidarr/internal/utils/logging"

	"github.com/browserutils/kooky"
	// Use all browsers for Kooky:
	_ "github.com/browserutils/kooky/browser/all"
	"golang.org/x/net/publicsuffix"
)

// CookieManager holds cookies for a domain.
type CookieManager struct {
	mu      sync.RWMutex
	cookies map[string][]*http.Cookie
}

// NewCookieManager initializes a new cookie manager instance.
func NewCookieManager() *CookieManager {
	return &CookieManager{
		cookies: make(map[string][]*http.Cookie),
	}
}

// GetCookies retrieves cookies for a given URL.
func (cm *CookieManager) GetCookies(ctx context.Context, u string) ([]*http.Cookie, error) {
	baseURL, err := baseDomain(u)
	if err != nil {
		return nil, fmt.Errorf("error extracting base domain in cookie grab: %w", err)
	}

	// Check if we already have cookies for this domain
	cm.mu.RLock()
	if cookies, ok := cm.cookies[baseURL]; ok {
		cm.mu.RUnlock()
		return cookies, nil
	}
	cm.mu.RUnlock()

	// Load cookies for domain
	cookies := cm.loadCookiesForDomain(ctx, baseURL)

	// Store cookies
	cm.mu.Lock()
	cm.cookies[baseURL] = cookies
	cm.mu.Unlock()

	return cookies, nil
}

// loadCookiesForDomain loads the cookies associated with a particular domain.
func (cm *CookieManager) loadCookiesForDomain(ctx context.Context, domain string) []*http.Cookie {
	kookieCookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.Domain(domain))
	if err != nil {
		logging.D(2, "Failed reading cookies: %v", err)
		return nil
	}

	if len(kookieCookies) > 0 {
		logging.I("Found %d cookies for %s", len(kookieCookies), domain)
		return convertToHTTPCookies(kookieCookies)
	}

	logging.D(1, "No cookies found for %s", domain)
	return nil
}

// convertToHTTPCookies converts kooky cookies to http.Cookie format.
func convertToHTTPCookies(kookyCookies []*kooky.Cookie) []*http.Cookie {
	httpCookies := make([]*http.Cookie, len(kookyCookies))
	for i, c := range kookyCookies {
		httpCookies[i] = &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Path:   c.Path,
			Domain: c.Domain,
			Secure: c.Secure,
		}
	}
	return httpCookies
}

// baseDomain reduces a URL to its effective top-level-plus-one domain.
func baseDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("no hostname in URL %q", rawURL)
	}

	base, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Bare hostnames (e.g. test servers) fall back to the raw host.
		return strings.ToLower(host), nil
	}
	return strings.ToLower(base), nil
}
