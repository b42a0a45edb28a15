package auctionapi

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var phoneRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

const managerMarker = "Auction Manager:"

// CleanDescription strips HTML from an auction description: the manager
// contact block is removed, script and style contents are dropped, and
// whitespace is collapsed to single spaces.
func CleanDescription(desc string) string {
	if desc == "" {
		return ""
	}

	// The manager block is appended as its own paragraph; everything from it
	// on is contact info, not description.
	if idx := strings.Index(desc, "<p><b>"+managerMarker); idx >= 0 {
		desc = desc[:idx]
	}

	root, err := html.Parse(strings.NewReader(desc))
	if err != nil {
		// Fall back to naive tag stripping.
		return collapseWhitespace(regexp.MustCompile(`<[^<]+?>`).ReplaceAllString(desc, ""))
	}

	var sb strings.Builder
	collectText(root, &sb)
	return collapseWhitespace(sb.String())
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractManager pulls the auction manager contact out of the description
// HTML. This depends on the markup AuctionMethod currently emits; a zero
// Manager (with the default ContactLine fallback) is returned when the block
// is absent or unparseable.
func ExtractManager(desc string) Manager {
	var m Manager
	if desc == "" || !strings.Contains(desc, managerMarker) {
		return m
	}

	root, err := html.Parse(strings.NewReader(desc))
	if err != nil {
		return m
	}

	block := findManagerBlock(root)
	if block == nil {
		return m
	}

	var sb strings.Builder
	collectText(block, &sb)
	text := collapseWhitespace(sb.String())

	if email := findMailto(block); strings.HasSuffix(email, "@mclemoreauction.com") {
		m.Email = email
	}
	m.Phone = phoneRe.FindString(text)

	// The name sits between the marker and the phone/email.
	nameText := text
	if idx := strings.LastIndex(nameText, managerMarker); idx >= 0 {
		nameText = nameText[idx+len(managerMarker):]
	}
	if m.Phone != "" {
		nameText = strings.ReplaceAll(nameText, m.Phone, "")
	}
	if m.Email != "" {
		nameText = strings.ReplaceAll(nameText, m.Email, "")
	}
	m.Name = collapseWhitespace(nameText)

	return m
}

// findManagerBlock returns the nearest element ancestor of the text node
// containing the marker.
func findManagerBlock(n *html.Node) *html.Node {
	if n.Type == html.TextNode && strings.Contains(n.Data, managerMarker) {
		if n.Parent != nil {
			// Climb to the enclosing paragraph so siblings (phone, mailto
			// link) are in scope.
			block := n.Parent
			for block.Parent != nil && block.Data != "p" && block.Data != "body" {
				block = block.Parent
			}
			return block
		}
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findManagerBlock(c); found != nil {
			return found
		}
	}
	return nil
}

func findMailto(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key == "href" && strings.HasPrefix(attr.Val, "mailto:") {
				return strings.TrimPrefix(attr.Val, "mailto:")
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMailto(c); found != "" {
			return found
		}
	}
	return ""
}
