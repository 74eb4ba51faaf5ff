package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gdprscan/gdprscan/internal/browser"
	"github.com/gdprscan/gdprscan/internal/classifier"
	"github.com/gdprscan/gdprscan/internal/model"
	"github.com/gdprscan/gdprscan/internal/sitemap"
)

func newTestCoordinator(t *testing.T, clf classifier.Classifier, opts ...CoordinatorOption) *Coordinator {
	t.Helper()
	fetcher := browser.NewFetcher()
	t.Cleanup(func() { _ = fetcher.Close() })
	return NewCoordinator(fetcher, clf, nil, opts...)
}

// The full pass: the policy page is found from the home page, and every
// sub-target is then discovered on (or from) the policy page.
func TestCoordinatorDiscover_FullPass(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>Home.</p><a href="`+srv.URL+`/privacy">Privacy Policy</a></body></html>`)
	})
	mux.HandleFunc("/privacy", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Privacy Policy</h1><p>POLICY TEXT covering COOKIES DATA RETENTION DELETION and DPO CONTACT.</p></body></html>`)
	})

	clf := &fakeClassifier{
		embedded: map[string]classifier.EmbeddedVerdict{
			"POLICY TEXT": {Found: true, Summary: "covers everything"},
		},
		selection: classifier.LinkVerdict{ChosenURL: srv.URL + "/privacy"},
	}
	coord := newTestCoordinator(t, clf, WithConcurrency(2))

	analysis := model.NewSiteAnalysis(srv.URL, "accept")
	coord.Discover(context.Background(), analysis)

	if !analysis.PrivacyPolicy.Found {
		t.Fatalf("privacy policy not found: %s", analysis.PrivacyPolicy.Reasoning)
	}
	if want := srv.URL + "/privacy"; analysis.PrivacyPolicy.URL != want {
		t.Errorf("privacy policy URL = %q, want %q", analysis.PrivacyPolicy.URL, want)
	}

	if got, want := len(analysis.Targets), len(model.SubTargets()); got != want {
		t.Fatalf("recorded %d sub-target results, want %d", got, want)
	}
	for _, target := range model.SubTargets() {
		result, ok := analysis.Targets[target.String()]
		if !ok {
			t.Errorf("no result recorded for %s", target)
			continue
		}
		// The policy page embeds every sub-target, so each run resolves
		// as embedded at the policy URL.
		if !result.Found || !result.Embedded {
			t.Errorf("%s = %+v, want embedded at policy page", target, result)
		}
		if want := srv.URL + "/privacy"; result.URL != want {
			t.Errorf("%s URL = %q, want %q", target, result.URL, want)
		}
	}

	if got := analysis.FoundCount(); got != 5 {
		t.Errorf("FoundCount() = %d, want 5", got)
	}
}

// Without a resolved privacy policy the sub-targets are never searched.
func TestCoordinatorDiscover_NoPolicySkipsSubTargets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>Nothing legal here.</p></body></html>`)
	}))
	t.Cleanup(srv.Close)

	clf := &fakeClassifier{}
	coord := newTestCoordinator(t, clf)

	analysis := model.NewSiteAnalysis(srv.URL, "reject")
	coord.Discover(context.Background(), analysis)

	if analysis.PrivacyPolicy.Found {
		t.Fatalf("privacy policy = %+v, want not found", analysis.PrivacyPolicy)
	}
	for _, target := range model.SubTargets() {
		result := analysis.Targets[target.String()]
		if result.Found {
			t.Errorf("%s = %+v, want not found", target, result)
		}
		if result.Reasoning != "no privacy policy url" {
			t.Errorf("%s Reasoning = %q", target, result.Reasoning)
		}
	}
	if clf.selectCalls != 0 {
		t.Errorf("SelectLink called %d times for a site with no candidate links", clf.selectCalls)
	}
}

// A policy page that no home-page link reaches is still found through the
// sitemap fallback, and the sub-target search then runs from it.
func TestCoordinatorDiscover_SitemapFallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		// The only way to the policy is a scripted menu the fetcher
		// cannot follow.
		fmt.Fprint(w, `<html><body><p>Nothing legal linked here.</p></body></html>`)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>%s/shop</loc></url>
	<url><loc>%s/privacy-policy</loc></url>
</urlset>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/privacy-policy", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Privacy Policy</h1><p>POLICY TEXT in full.</p></body></html>`)
	})

	clf := &fakeClassifier{
		embedded: map[string]classifier.EmbeddedVerdict{
			"POLICY TEXT": {Found: true, Summary: "full policy"},
		},
	}
	coord := newTestCoordinator(t, clf, WithSitemap(sitemap.NewClient()))

	analysis := model.NewSiteAnalysis(srv.URL, "accept")
	coord.Discover(context.Background(), analysis)

	if !analysis.PrivacyPolicy.Found {
		t.Fatalf("privacy policy not found: %s", analysis.PrivacyPolicy.Reasoning)
	}
	if want := srv.URL + "/privacy-policy"; analysis.PrivacyPolicy.URL != want {
		t.Errorf("privacy policy URL = %q, want %q", analysis.PrivacyPolicy.URL, want)
	}
	if analysis.PrivacyPolicy.Embedded {
		t.Error("sitemap result should be a dedicated page, not embedded")
	}
	if got, want := len(analysis.Targets), len(model.SubTargets()); got != want {
		t.Errorf("recorded %d sub-target results, want %d", got, want)
	}
}

// An unreachable site degrades every target to not found instead of
// failing the pass.
func TestCoordinatorDiscover_SiteUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	coord := newTestCoordinator(t, &fakeClassifier{})

	analysis := model.NewSiteAnalysis(srv.URL, "accept")
	coord.Discover(context.Background(), analysis)

	if analysis.PrivacyPolicy.Found {
		t.Fatal("privacy policy found on a dead site")
	}
	if !strings.HasPrefix(analysis.PrivacyPolicy.Reasoning, "seed page unreachable") {
		t.Errorf("PrivacyPolicy.Reasoning = %q", analysis.PrivacyPolicy.Reasoning)
	}
	if got := analysis.FoundCount(); got != 0 {
		t.Errorf("FoundCount() = %d, want 0", got)
	}
}
