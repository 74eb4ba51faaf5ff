package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFetch_FromRobots(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nDisallow: /admin\nSitemap: %s/custom-sitemap.xml\n", srv.URL)
	})
	mux.HandleFunc("/custom-sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/</loc></url>
  <url><loc>%s/privacy</loc></url>
</urlset>`, srv.URL, srv.URL)
	})

	urls, err := NewClient().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("Fetch() returned %d URLs, want 2: %v", len(urls), urls)
	}
	if urls[1] != srv.URL+"/privacy" {
		t.Errorf("urls[1] = %q, want %q", urls[1], srv.URL+"/privacy")
	}
}

func TestClientFetch_ConventionalLocation(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%s/legal</loc></url></urlset>`, srv.URL)
	})

	urls, err := NewClient().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(urls) != 1 || urls[0] != srv.URL+"/legal" {
		t.Errorf("Fetch() = %v, want [%s/legal]", urls, srv.URL)
	}
}

func TestClientFetch_SitemapIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
  <sitemap><loc>%s/sitemap-pages.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%s/privacy</loc></url><url><loc>%s/terms</loc></url></urlset>`, srv.URL, srv.URL)
	})

	urls, err := NewClient().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// The self-referencing index entry must not loop.
	if len(urls) != 2 {
		t.Fatalf("Fetch() returned %d URLs, want 2: %v", len(urls), urls)
	}
}

func TestClientFetch_MaxURLsCap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<urlset>`)
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, `<url><loc>%s/page-%d</loc></url>`, srv.URL, i)
		}
		fmt.Fprint(w, `</urlset>`)
	})

	urls, err := NewClient(WithMaxURLs(5)).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(urls) != 5 {
		t.Errorf("Fetch() returned %d URLs, want cap of 5", len(urls))
	}
}

func TestClientFetch_NoSitemap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := NewClient().Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrNoSitemap) {
		t.Errorf("Fetch() error = %v, want ErrNoSitemap", err)
	}
}

func TestClientFetch_InvalidSiteURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient().Fetch(context.Background(), "::not a url::"); err == nil {
		t.Error("Fetch() succeeded on an invalid URL")
	}
}
