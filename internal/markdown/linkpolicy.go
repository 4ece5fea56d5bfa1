package markdown

import "strings"

// AllowAll is the wildcard prefix permitting every link and image.
const AllowAll = "*"

// LinkPolicy is the user-supplied allow-list for live links and images.
// It is fixed for the lifetime of a rendering session.
type LinkPolicy struct {
	AllowedHosts []string
	IncludeWww   bool
	AllowHTTP    bool
}

// AllowedDomainsToLinkPrefixes expands the allow-list into concrete
// origin prefixes. An empty list permits nothing; a "*" entry
// short-circuits to the wildcard. Full URLs pass through verbatim,
// unaffected by the www/http options; bare domains expand to every
// scheme and www variant the policy enables. The result is
// deduplicated, in first-seen order.
func AllowedDomainsToLinkPrefixes(p LinkPolicy) []string {
	if len(p.AllowedHosts) == 0 {
		return nil
	}
	for _, h := range p.AllowedHosts {
		if strings.TrimSpace(h) == AllowAll {
			return []string{AllowAll}
		}
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(prefix string) {
		if _, ok := seen[prefix]; ok {
			return
		}
		seen[prefix] = struct{}{}
		out = append(out, prefix)
	}

	for _, host := range p.AllowedHosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
			add(host)
			continue
		}
		host = strings.TrimSuffix(host, ".")
		add("https://" + host)
		if p.AllowHTTP {
			add("http://" + host)
		}
		if p.IncludeWww && !strings.HasPrefix(host, "www.") {
			add("https://www." + host)
			if p.AllowHTTP {
				add("http://www." + host)
			}
		}
	}
	return out
}

// LinkAllowed reports whether url may render live under the given
// prefix list.
func LinkAllowed(prefixes []string, url string) bool {
	for _, p := range prefixes {
		if p == AllowAll || strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}
