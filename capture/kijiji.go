// Package capture turns stored Kijiji result pages into raw listings.
package capture

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"phone-tracker/models"
)

// BaseURL prefixes the relative links found on result cards.
const BaseURL = "https://www.kijiji.ca"

// ParseListings extracts one RawListing per "info-container" card.
// A card missing one of its fields yields an empty string for it.
func ParseListings(r io.Reader) ([]*models.RawListing, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("capture: parse html: %w", err)
	}
	return ListingsFromNode(doc), nil
}

// ListingsFromNode walks an already parsed document.
func ListingsFromNode(doc *html.Node) []*models.RawListing {
	var listings []*models.RawListing
	var f func(*html.Node)
	f = func(n *html.Node) {
		if isElement(n, "div") && hasClass(n, "info-container") {
			listings = append(listings, parseCard(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)
	return listings
}

func parseCard(card *html.Node) *models.RawListing {
	l := &models.RawListing{}
	if n := findFirst(card, "div", "price"); n != nil {
		l.RawPrice = textOf(n)
	}
	if n := findFirst(card, "div", "distance"); n != nil {
		l.Distance = textOf(n)
	}
	if n := findFirst(card, "div", "description"); n != nil {
		l.Description = textOf(n)
	}
	if n := findFirst(card, "div", "title"); n != nil {
		l.Title = textOf(n)
		if a := findFirst(n, "a", "title"); a != nil {
			l.Link = absoluteLink(attr(a, "href"))
		}
	}
	return l
}

// HasNextPage reports whether the pagination block links to a next page.
func HasNextPage(r io.Reader) (bool, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return false, fmt.Errorf("capture: parse html: %w", err)
	}
	return NextPageLink(doc) != "", nil
}

// NextPageLink returns the href of the pagination "Next" anchor, or "".
func NextPageLink(doc *html.Node) string {
	pagination := findFirst(doc, "div", "pagination")
	if pagination == nil {
		return ""
	}
	var href string
	var f func(*html.Node) bool
	f = func(n *html.Node) bool {
		if isElement(n, "a") && attr(n, "title") == "Next" {
			href = absoluteLink(attr(n, "href"))
			if href == "" {
				href = "#"
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if f(c) {
				return true
			}
		}
		return false
	}
	f(pagination)
	return href
}

// findFirst returns the first descendant of n (depth first, n excluded)
// with the given tag and class.
func findFirst(n *html.Node, tag, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tag) && hasClass(c, class) {
			return c
		}
		if found := findFirst(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

// textOf concatenates every text node under n verbatim, newlines included.
func textOf(n *html.Node) string {
	var buf strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return buf.String()
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func absoluteLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return BaseURL + href
}
