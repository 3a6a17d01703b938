package utils

import (
	"net/url"
	"strings"
)

// trackingParams are query keys dropped during URL normalisation.
var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "msclkid": {}, "mc_cid": {}, "mc_eid": {},
	"ref": {}, "ref_src": {}, "_ga": {}, "_gl": {}, "igshid": {},
}

// NormalizeURL lower-cases the scheme and host, strips tracking query
// parameters (utm_* and friends), the fragment and a trailing slash. It
// returns "" for anything that is not an absolute http(s) URL.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			lk := strings.ToLower(key)
			if strings.HasPrefix(lk, "utm_") {
				q.Del(key)
				continue
			}
			if _, drop := trackingParams[lk]; drop {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	} else if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}

// Hostname returns the lower-cased host of raw without a "www." prefix.
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SameSite reports whether a and b share a hostname, ignoring "www.".
func SameSite(a, b string) bool {
	ha, hb := Hostname(a), Hostname(b)
	return ha != "" && ha == hb
}
