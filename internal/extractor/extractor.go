package extractor

import (
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"

	"github.com/gdprscan/gdprscan/internal/model"
)

// assetExtensions are URL path extensions that never point at a document
// worth analyzing. Links ending in one of these are dropped during
// extraction.
var assetExtensions = map[string]bool{
	".js": true, ".css": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".pdf": true, ".xml": true, ".json": true, ".zip": true,
	".rar": true, ".tar": true, ".gz": true, ".svg": true, ".ico": true,
	".mp3": true, ".mp4": true, ".webm": true, ".webp": true, ".avi": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
}

// Extractor extracts candidate links from HTML content.
// It resolves relative URLs, restricts results to the analyzed site, and
// deduplicates by resolved URL.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. Standard library extension, well-maintained
type Extractor struct {
	// pageURL is the navigated URL of the page being parsed. It is the
	// default base for resolving relative hrefs; an explicit <base>
	// element overrides it.
	pageURL *url.URL

	// logger records per-anchor extraction failures, which are skipped
	// rather than aborting the extraction.
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor for the page at pageURL.
func New(pageURL string, opts ...Option) (*Extractor, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		pageURL: u,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Links extracts the unique candidate-link set from the HTML content.
// A link survives extraction only if its host is the analyzed site's
// registrable domain or a subdomain of it, it carries no fragment, and its
// path does not end in a known asset extension. Per-anchor failures are
// logged and skipped; they never abort extraction for the page.
func (e *Extractor) Links(content io.Reader) ([]model.CandidateLink, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	base := e.pageURL
	if explicit := findBase(doc); explicit != "" {
		if resolved, err := e.pageURL.Parse(explicit); err == nil {
			base = resolved
		} else {
			e.logger.Debug("ignoring unparseable base element", "href", explicit, "error", err)
		}
	}

	links := make([]model.CandidateLink, 0)
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link, ok := e.candidate(n, base); ok && !seen[link.Href] {
				seen[link.Href] = true
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// candidate resolves and filters a single anchor element.
func (e *Extractor) candidate(n *html.Node, base *url.URL) (model.CandidateLink, bool) {
	href := strings.TrimSpace(getAttr(n, "href"))
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return model.CandidateLink{}, false
	}

	u, err := url.Parse(href)
	if err != nil {
		e.logger.Debug("skipping unparseable href", "href", href, "error", err)
		return model.CandidateLink{}, false
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return model.CandidateLink{}, false
	}

	// Fragment links point inside a page we can already see.
	if resolved.Fragment != "" {
		return model.CandidateLink{}, false
	}

	if !sameSite(e.pageURL.Hostname(), resolved.Hostname()) {
		return model.CandidateLink{}, false
	}

	if assetExtensions[strings.ToLower(path.Ext(resolved.Path))] {
		return model.CandidateLink{}, false
	}

	return model.CandidateLink{
		Href:       resolved.String(),
		AnchorText: anchorLabel(n),
	}, true
}

// anchorLabel returns the text the anchor presents to a reader: visible text
// when there is any, otherwise the aria-label or title attribute. Icon-only
// footer links often carry their meaning in aria-label alone.
func anchorLabel(n *html.Node) string {
	if text := strings.TrimSpace(anchorText(n)); text != "" {
		return text
	}
	if label := strings.TrimSpace(getAttr(n, "aria-label")); label != "" {
		return label
	}
	return strings.TrimSpace(getAttr(n, "title"))
}

// sameSite reports whether host belongs to the analyzed site: it must equal
// the site's registrable domain or be a subdomain of it.
//
// Design decision: We compare registrable domains (public suffix list)
// rather than raw hosts so that www.example.com and legal.example.com are
// both in scope when the entry page is example.com. Hosts the public suffix
// list cannot classify (localhost, IP addresses in tests) fall back to an
// exact or dot-suffix comparison.
func sameSite(baseHost, host string) bool {
	baseHost = strings.ToLower(baseHost)
	host = strings.ToLower(host)

	if host == baseHost {
		return true
	}

	baseDomain, err := publicsuffix.EffectiveTLDPlusOne(baseHost)
	if err != nil {
		return strings.HasSuffix(host, "."+baseHost)
	}

	return host == baseDomain || strings.HasSuffix(host, "."+baseDomain)
}

// anchorText collects the visible text inside an anchor element.
func anchorText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// findBase returns the href of the first <base> element, or "".
func findBase(doc *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "base" {
			found = strings.TrimSpace(getAttr(n, "href"))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
