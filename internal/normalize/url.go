package normalize

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters stripped during URL normalization.
// They identify campaigns, not resources.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"source":       true,
	"casa_token":   true,
	"access_token": true,
}

// URL normalizes a URL for alias comparison: protocol and "www." stripped,
// host and path lower-cased, tracking query parameters removed, trailing
// slash dropped. Returns "" for unparseable input.
func URL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimRight(strings.ToLower(u.Path), "/")

	query := ""
	if u.RawQuery != "" {
		kept := url.Values{}
		for key, vals := range u.Query() {
			lower := strings.ToLower(key)
			if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
				continue
			}
			for _, v := range vals {
				kept.Add(lower, v)
			}
		}
		if len(kept) > 0 {
			query = "?" + kept.Encode()
		}
	}

	return host + path + query
}
