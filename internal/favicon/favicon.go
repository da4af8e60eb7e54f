// internal/favicon/favicon.go
//
// Best-effort favicon discovery.
//
// Context
// -------
// When an admin creates a site (or the public submits one) without a logo,
// the catalog asks this collaborator for one.  The probe is strictly best
// effort: a short per-probe timeout, no retries, and a miss never fails the
// calling operation — the site simply has no logo until someone sets one.
//
// Workflow
// --------
//  1. Normalise the raw URL (assume https:// when no scheme is given).
//  2. HEAD <origin>/favicon.ico; an image content-type is a hit.
//  3. Otherwise GET the page and scan the <head> for a rel="icon" link,
//     resolving relative hrefs against the page URL.
//
// Notes
// -----
// • HTML is walked with x/net/html tokens, never regexp.
// • Oxford commas, two spaces after periods.
package favicon

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/yanizio/waypost/internal/metrics"
)

// ErrNotFound reports that no icon could be discovered.  Callers treat it
// as "leave the logo empty," not as a failure.
var ErrNotFound = errors.New("favicon: not found")

// Finder is the discovery collaborator consumed by the catalog and the
// moderation queue.  Implementations must be safe for concurrent use.
type Finder interface {
	Discover(ctx context.Context, siteURL string) (string, error)
}

// HTTPFinder probes the target site over HTTP.
type HTTPFinder struct {
	client *http.Client
}

// New returns an HTTPFinder with a bounded per-probe timeout.
func New() *HTTPFinder {
	return &HTTPFinder{client: &http.Client{Timeout: 5 * time.Second}}
}

// Discover resolves an icon URL for siteURL, or ErrNotFound.
func (f *HTTPFinder) Discover(ctx context.Context, siteURL string) (string, error) {
	base, err := normalize(siteURL)
	if err != nil {
		metrics.FaviconProbesTotal.WithLabelValues("error").Inc()
		return "", err
	}

	if icon := f.probeICO(ctx, base); icon != "" {
		metrics.FaviconProbesTotal.WithLabelValues("hit").Inc()
		return icon, nil
	}
	if icon := f.probeHTML(ctx, base); icon != "" {
		metrics.FaviconProbesTotal.WithLabelValues("hit").Inc()
		return icon, nil
	}

	metrics.FaviconProbesTotal.WithLabelValues("miss").Inc()
	return "", ErrNotFound
}

// probeICO checks the conventional /favicon.ico location.
func (f *HTTPFinder) probeICO(ctx context.Context, base *url.URL) string {
	ico := base.ResolveReference(&url.URL{Path: "/favicon.ico"})
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ico.String(), nil)
	if err != nil {
		return ""
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && strings.HasPrefix(ct, "image/") {
		return ico.String()
	}
	return ""
}

// probeHTML fetches the page and scans for <link rel="icon"> variants.
func (f *HTTPFinder) probeHTML(ctx context.Context, base *url.URL) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return ""
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	z := html.NewTokenizer(resp.Body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "body" {
				// Icons live in <head>; stop before the document body.
				return ""
			}
			if tok.Data != "link" {
				continue
			}
			var rel, href string
			for _, a := range tok.Attr {
				switch a.Key {
				case "rel":
					rel = strings.ToLower(a.Val)
				case "href":
					href = a.Val
				}
			}
			if href == "" || !isIconRel(rel) {
				continue
			}
			if u, err := url.Parse(href); err == nil {
				return base.ResolveReference(u).String()
			}
		}
	}
}

// isIconRel matches the rel values browsers treat as page icons.
func isIconRel(rel string) bool {
	switch rel {
	case "icon", "shortcut icon", "apple-touch-icon", "apple-touch-icon-precomposed":
		return true
	}
	return false
}

// normalize parses raw, assuming https when no scheme is present, and
// strips everything below the origin.
func normalize(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNotFound
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, ErrNotFound
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}
