package cdn

import "strings"

// BuildPurgeSet assembles the deduplicated URL set for a purge: the site's
// sitemap URLs always, any caller-supplied extras, and per-slug product page
// URLs when the toggle is on. Order is first-seen stable so chunking and
// replay are deterministic.
func BuildPurgeSet(siteURL string, extraURLs []string, includeProductURLs bool, slugs []string) []string {
	base := strings.TrimRight(strings.TrimSpace(siteURL), "/")

	seen := make(map[string]struct{})
	var urls []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	add(base + "/sitemap.xml")
	add(base + "/sitemap-products.xml")

	for _, u := range extraURLs {
		add(u)
	}

	if includeProductURLs {
		for _, slug := range slugs {
			slug = strings.Trim(strings.TrimSpace(slug), "/")
			if slug == "" {
				continue
			}
			add(base + "/products/" + slug)
		}
	}

	return urls
}

// chunkURLs partitions urls into slices of at most size elements.
func chunkURLs(urls []string, size int) [][]string {
	if size <= 0 || len(urls) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(urls)+size-1)/size)
	for start := 0; start < len(urls); start += size {
		end := start + size
		if end > len(urls) {
			end = len(urls)
		}
		chunks = append(chunks, urls[start:end])
	}
	return chunks
}
