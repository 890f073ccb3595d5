package sitemap

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestRenderURLSet(t *testing.T) {
	entries := []Entry{
		{Link: "https://example.com/hello/", Updated: strPtr("2026-02-01T10:00:00Z")},
		{Link: "https://example.com/bare/"},
	}

	body, err := RenderURLSet(entries, "")
	if err != nil {
		t.Fatalf("RenderURLSet() error = %v", err)
	}
	doc := string(body)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		`<loc>https://example.com/hello/</loc>`,
		`<lastmod>2026-02-01T10:00:00Z</lastmod>`,
		`<loc>https://example.com/bare/</loc>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document is missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "xml-stylesheet") {
		t.Error("stylesheet instruction emitted without a style")
	}
	if strings.Contains(doc, "xmlns:image") {
		t.Error("image namespace declared with no image entries")
	}
}

func TestRenderURLSetWithImages(t *testing.T) {
	entries := []Entry{{
		Link:    "https://example.com/post/",
		Updated: strPtr("2026-02-01T10:00:00Z"),
		Images:  1,
		ImagesData: []ImageEntry{
			{Link: "https://example.com/a.png", Updated: strPtr("2026-02-01T10:00:00Z")},
		},
	}}

	body, err := RenderURLSet(entries, "/sitemap.xsl")
	if err != nil {
		t.Fatalf("RenderURLSet() error = %v", err)
	}
	doc := string(body)

	for _, want := range []string{
		`xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`,
		`<image:image>`,
		`<image:loc>https://example.com/a.png</image:loc>`,
		`<?xml-stylesheet type="text/xsl" href="/sitemap.xsl"?>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document is missing %q:\n%s", want, doc)
		}
	}
}

func TestRenderIndex(t *testing.T) {
	entries := []IndexEntry{
		{Link: "https://example.com/post-sitemap-1.xml", Updated: "2026-02-01T10:00:00Z"},
		{Link: "https://example.com/category-sitemap.xml"},
	}

	body, err := RenderIndex(entries, "")
	if err != nil {
		t.Fatalf("RenderIndex() error = %v", err)
	}
	doc := string(body)

	for _, want := range []string{
		`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		`<loc>https://example.com/post-sitemap-1.xml</loc>`,
		`<lastmod>2026-02-01T10:00:00Z</lastmod>`,
		`<loc>https://example.com/category-sitemap.xml</loc>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document is missing %q:\n%s", want, doc)
		}
	}
}
