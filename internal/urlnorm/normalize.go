// Package urlnorm canonicalizes URLs so that cosmetic differences do not
// produce false citation mismatches.
package urlnorm

import (
	"net/url"
	"sort"
	"strings"
)

// Normalize returns the canonical form of a URL: lowercased scheme and host,
// default ports stripped, safely-decodable percent escapes decoded in the
// path, trailing slash removed unless the path is root, query parameters
// sorted by key then value, fragment discarded.
//
// Input that cannot be parsed as an absolute URL is returned unchanged, so
// two unparsable strings still compare by literal equality. Normalize never
// fails; invalid URLs are flagged elsewhere.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)

	// Strip default ports
	if h, port, ok := strings.Cut(host, ":"); ok {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			host = h
		}
	}

	// Re-escaping the decoded path folds escapes like %41 back to their
	// literal characters while keeping reserved characters escaped
	path := (&url.URL{Path: u.Path}).EscapedPath()
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteString("@")
	}
	b.WriteString(host)
	b.WriteString(path)

	if q := sortedQuery(u.Query()); q != "" {
		b.WriteString("?")
		b.WriteString(q)
	}

	// Fragment dropped
	return b.String()
}

// Equal reports whether two URLs are equal after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// sortedQuery encodes query parameters sorted lexicographically by key,
// then by value within a key. An empty or bare-"?" query encodes to "".
func sortedQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteString("&")
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
