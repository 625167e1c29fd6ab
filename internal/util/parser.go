package util

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseLinks walks an HTML node tree depth-first and collects href values of
// <a> tags ending with the given suffix (case-insensitive). Root links ("/")
// are ignored.
func ParseLinks(n *html.Node, suffix string) []string {
	var out []string
	var walk func(*html.Node)

	walk = func(nd *html.Node) {
		if nd.Type == html.ElementNode && nd.Data == "a" {
			for _, a := range nd.Attr {
				if a.Key != "href" {
					continue
				}
				if a.Val != "/" && strings.HasSuffix(strings.ToLower(a.Val), strings.ToLower(suffix)) {
					out = append(out, a.Val)
				}
				break
			}
		}
		for c := nd.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return out
}
