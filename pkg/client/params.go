package client

import (
	"net/url"
	"strings"
)

// FormatParams builds the query string for a bulk request:
// "?name[]=<v>&name[]=<v>...". The key is written literally while every
// value is percent-encoded, escaping all bytes outside A-Z a-z 0-9 - _ . ~
// and writing spaces as %20. url.Values cannot be used because it would
// encode the brackets of the key. An empty list yields "".
func FormatParams(names []string) string {
	var b strings.Builder
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("name[]=")
		b.WriteString(encodeValue(name))
	}
	return b.String()
}

// encodeValue percent-encodes a query value. QueryEscape already escapes a
// literal '+', so the '+' it writes for spaces can be swapped for %20.
func encodeValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
