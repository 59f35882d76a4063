package dedup

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoIdentity reports an entry with neither a link nor a guid.
var ErrNoIdentity = errors.New("entry has no link and no guid")

var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
}

// Key returns the dedup key for an entry of feedID. The normalized link is
// preferred; the guid is used when the link is empty.
func Key(feedID int64, link, guid string) (string, error) {
	prefix := strconv.FormatInt(feedID, 10) + ":"
	if normalized := NormalizeURL(link); normalized != "" {
		return prefix + normalized, nil
	}
	if guid = strings.TrimSpace(guid); guid != "" {
		return prefix + "guid:" + guid, nil
	}
	return "", ErrNoIdentity
}

// NormalizeURL canonicalizes a link so trivially different spellings of the
// same article share a key. Scheme and host are lowercased, the fragment and
// tracking parameters are dropped, and a trailing slash is trimmed. Values
// that do not parse as absolute URLs are returned trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		query := u.Query()
		for name := range query {
			lower := strings.ToLower(name)
			if _, drop := trackingParams[lower]; drop || strings.HasPrefix(lower, "utm_") {
				query.Del(name)
			}
		}
		u.RawQuery = query.Encode()
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
