package notifier

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"FlightSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// FormatPrice renders a price with two decimals and its currency code.
func FormatPrice(price float64, currency string) string {
	s := decimal.NewFromFloat(price).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatDuration renders minutes as "5h 30m".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "n/a"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

func formatStops(stops int) string {
	switch stops {
	case 0:
		return "non-stop"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", stops)
	}
}

func writeDealLines(b *strings.Builder, p model.Pick) {
	b.WriteString(fmt.Sprintf("Price: %s\n", FormatPrice(p.Price, p.Currency)))
	b.WriteString(fmt.Sprintf("Duration: %s\n", FormatDuration(p.DurationMinutes)))
	b.WriteString(fmt.Sprintf("Stops: %s\n", formatStops(p.Stops)))
	if p.Airline != "" {
		b.WriteString(fmt.Sprintf("Airline: %s\n", p.Airline))
	}
	b.WriteString(fmt.Sprintf("Deal score: %.0f/100\n", p.Score*100))
	if p.Outlier != "" {
		b.WriteString(fmt.Sprintf("Note: %s\n", p.Outlier))
	}
}

// FormatDigestEmail renders the weekly digest for one subscriber.
func FormatDigestEmail(origin string, p model.Pick, sub model.Subscriber, unsubscribeBase string) Message {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("This week's best deal from %s (%s)\n\n", origin, time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Route: %s -> %s\n", origin, p.Destination))
	writeDealLines(&b, p)
	if unsubscribeBase != "" && sub.UnsubscribeToken != "" {
		b.WriteString("\nUnsubscribe: " + unsubscribeLink(unsubscribeBase, sub.UnsubscribeToken) + "\n")
	}
	return Message{
		Subject:    fmt.Sprintf("Weekly deal: %s -> %s for %s", origin, p.Destination, FormatPrice(p.Price, p.Currency)),
		Body:       b.String(),
		Recipients: []string{sub.Email},
	}
}

func unsubscribeLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// FormatDealPost renders the weekly highlight for the social channel.
func FormatDealPost(origin string, p model.Pick) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✈️ <b>Deal of the week</b> | %s → %s\n\n", origin, p.Destination))
	writeDealLines(&b, p)
	return b.String()
}

// FormatExplore renders the cheapest-per-destination list.
func FormatExplore(origin string, picks []model.Pick) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧭 <b>Cheapest from %s</b>\n\n", origin))
	if len(picks) == 0 {
		b.WriteString("No offers found.\n")
		return b.String()
	}
	for i, p := range picks {
		b.WriteString(fmt.Sprintf("%d. %s  %s  %s  %s", i+1, p.Destination,
			FormatPrice(p.Price, p.Currency), FormatDuration(p.DurationMinutes), formatStops(p.Stops)))
		if p.Outlier != "" {
			b.WriteString(fmt.Sprintf("  ⚠️ %s", p.Outlier))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSavedSearchAlert renders a price update for a saved search owner.
func FormatSavedSearchAlert(ss model.SavedSearch, p model.Pick) Message {
	var b strings.Builder
	q := ss.Params
	b.WriteString(fmt.Sprintf("Your saved search %s -> %s on %s", q.Origin, q.Destination, q.DepartDate))
	if q.ReturnDate != "" {
		b.WriteString(fmt.Sprintf(" (return %s)", q.ReturnDate))
	}
	b.WriteString(" has a new best offer.\n\n")
	writeDealLines(&b, p)
	if ss.LastSentPrice > 0 {
		b.WriteString(fmt.Sprintf("Previously: %s\n", FormatPrice(ss.LastSentPrice, p.Currency)))
	}
	return Message{
		Subject:    fmt.Sprintf("Price update: %s -> %s now %s", q.Origin, q.Destination, FormatPrice(p.Price, p.Currency)),
		Body:       b.String(),
		Recipients: []string{ss.OwnerEmail},
	}
}

// FormatStatus renders the bot status reply.
func FormatStatus(subscribers, savedSearches int, last *model.Pick) string {
	var b strings.Builder
	b.WriteString("📦 <b>Status</b>\n\n")
	b.WriteString(fmt.Sprintf("Active subscribers: %d\n", subscribers))
	b.WriteString(fmt.Sprintf("Saved searches: %d\n", savedSearches))
	if last != nil {
		b.WriteString(fmt.Sprintf("Last digest: %s at %s (score %.0f)\n",
			last.Destination, FormatPrice(last.Price, last.Currency), last.Score*100))
	}
	return b.String()
}
