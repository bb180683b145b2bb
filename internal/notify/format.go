package notify

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/homematch/internal/model"
)

var printer = message.NewPrinter(language.English)

func emailSubject(clientName string, count int) string {
	noun := "matches"
	if count == 1 {
		noun = "match"
	}
	if clientName == "" {
		return fmt.Sprintf("%d property %s for your search", count, noun)
	}
	return fmt.Sprintf("%d property %s for %s", count, noun, clientName)
}

func formatPrice(price *float64) string {
	if price == nil {
		return "Price on request"
	}
	return printer.Sprintf("$%.0f", *price)
}

func listingFacts(l *model.Listing) string {
	facts := []string{}
	if l.Bedrooms != nil {
		facts = append(facts, fmt.Sprintf("%d bd", *l.Bedrooms))
	}
	if l.Bathrooms != nil {
		facts = append(facts, fmt.Sprintf("%g ba", *l.Bathrooms))
	}
	if l.Sqft != nil {
		facts = append(facts, printer.Sprintf("%d sqft", *l.Sqft))
	}
	if l.PropertyType != "" {
		facts = append(facts, l.PropertyType)
	}
	return strings.Join(facts, " · ")
}

// buildEmailHTML renders the approved matches as a self-contained HTML digest
// in rank order.
func buildEmailHTML(req *model.Requirement, matches []Match) string {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family:Arial,sans-serif;color:#222\">")

	greeting := "Hello"
	if req.ClientName != "" {
		greeting = "Hello " + html.EscapeString(req.ClientName)
	}
	fmt.Fprintf(&b, "<p>%s,</p>", greeting)
	fmt.Fprintf(&b, "<p>We found %d properties matching your requirements:</p>", len(matches))

	for _, m := range matches {
		l := m.Listing
		b.WriteString("<div style=\"border:1px solid #ddd;border-radius:8px;padding:16px;margin-bottom:16px\">")
		if l.ImageURL != "" {
			fmt.Fprintf(&b, "<img src=%q alt=\"\" style=\"max-width:100%%;border-radius:4px\"/>", l.ImageURL)
		}
		fmt.Fprintf(&b, "<h3 style=\"margin:8px 0\">#%d · %s</h3>",
			m.Result.RankPosition, html.EscapeString(l.Address))
		fmt.Fprintf(&b, "<p><strong>%s</strong>", formatPrice(l.Price))
		if facts := listingFacts(&l); facts != "" {
			fmt.Fprintf(&b, " · %s", html.EscapeString(facts))
		}
		b.WriteString("</p>")
		if l.Description != "" {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(l.Description))
		}
		fmt.Fprintf(&b, "<p>Match score: %.0f%%</p>", m.Result.OverallScore*100)
		if l.ListingURL != "" {
			fmt.Fprintf(&b, "<p><a href=%q>View listing</a></p>", l.ListingURL)
		}
		b.WriteString("</div>")
	}

	b.WriteString("<p>Reply to this email with any questions.</p>")
	b.WriteString("</body></html>")
	return b.String()
}

// buildWhatsAppSummary renders a short plain-text summary for WhatsApp.
func buildWhatsAppSummary(req *model.Requirement, matches []Match) string {
	var b strings.Builder
	if req.ClientName != "" {
		fmt.Fprintf(&b, "Hi %s! ", req.ClientName)
	}
	fmt.Fprintf(&b, "Here are your top %d property matches:\n", len(matches))

	for _, m := range matches {
		l := m.Listing
		fmt.Fprintf(&b, "\n%d. %s\n", m.Result.RankPosition, l.Address)
		fmt.Fprintf(&b, "   %s", formatPrice(l.Price))
		if facts := listingFacts(&l); facts != "" {
			fmt.Fprintf(&b, " · %s", facts)
		}
		b.WriteString("\n")
		if l.ListingURL != "" {
			fmt.Fprintf(&b, "   %s\n", l.ListingURL)
		}
	}

	b.WriteString("\nReply here if you'd like to book a viewing.")
	return b.String()
}
