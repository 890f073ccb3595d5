package sitemap

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractImages collects the src of every <img> in rendered HTML content, in
// document order, deduplicated. Relative URLs resolve against base;
// data: URIs are dropped.
func ExtractImages(content, base string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	var urls []string
	seen := map[string]struct{}{}

	tokenizer := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return urls
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := tokenizer.TagName()
		if string(name) != "img" || !hasAttr {
			continue
		}

		for {
			key, val, more := tokenizer.TagAttr()
			if string(key) == "src" {
				if u := normalizeImageURL(string(val), base); u != "" {
					if _, dup := seen[u]; !dup {
						seen[u] = struct{}{}
						urls = append(urls, u)
					}
				}
				break
			}
			if !more {
				break
			}
		}
	}
}

func normalizeImageURL(src, base string) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "", strings.HasPrefix(src, "data:"):
		return ""
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "/"):
		return base + src
	default:
		return base + "/" + src
	}
}
