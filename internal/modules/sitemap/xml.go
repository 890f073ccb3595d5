package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const (
	xmlnsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xmlnsImage   = "http://www.google.com/schemas/sitemap-image/1.1"
)

type xmlImage struct {
	Loc string `xml:"image:loc"`
}

type xmlURL struct {
	XMLName xml.Name   `xml:"url"`
	Loc     string     `xml:"loc"`
	LastMod string     `xml:"lastmod,omitempty"`
	Images  []xmlImage `xml:"image:image,omitempty"`
}

type xmlURLSet struct {
	XMLName    xml.Name `xml:"urlset"`
	Xmlns      string   `xml:"xmlns,attr"`
	XmlnsImage string   `xml:"xmlns:image,attr,omitempty"`
	URLs       []xmlURL
}

type xmlSitemap struct {
	XMLName xml.Name `xml:"sitemap"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type xmlIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Xmlns    string   `xml:"xmlns,attr"`
	Sitemaps []xmlSitemap
}

// RenderURLSet serializes leaf entries as a <urlset> document. styleHref, if
// non-empty, is emitted as an xml-stylesheet processing instruction.
func RenderURLSet(entries []Entry, styleHref string) ([]byte, error) {
	set := xmlURLSet{Xmlns: xmlnsSitemap}

	hasImages := false
	for _, e := range entries {
		u := xmlURL{Loc: e.Link}
		if e.Updated != nil {
			u.LastMod = *e.Updated
		}
		for _, img := range e.ImagesData {
			u.Images = append(u.Images, xmlImage{Loc: img.Link})
			hasImages = true
		}
		set.URLs = append(set.URLs, u)
	}
	if hasImages {
		set.XmlnsImage = xmlnsImage
	}

	return renderDocument(set, styleHref)
}

// RenderIndex serializes index entries as a <sitemapindex> document.
func RenderIndex(entries []IndexEntry, styleHref string) ([]byte, error) {
	idx := xmlIndex{Xmlns: xmlnsSitemap}
	for _, e := range entries {
		idx.Sitemaps = append(idx.Sitemaps, xmlSitemap{Loc: e.Link, LastMod: e.Updated})
	}
	return renderDocument(idx, styleHref)
}

func renderDocument(doc interface{}, styleHref string) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if styleHref != "" {
		fmt.Fprintf(&buf, "<?xml-stylesheet type=\"text/xsl\" href=%q?>\n", styleHref)
	}
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
