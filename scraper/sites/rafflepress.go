package sites

import (
	"context"
	"fmt"

	"rafflescout/config"
	"rafflescout/fetch"
	"rafflescout/markup"
	"rafflescout/models"
	"rafflescout/normalize"

	log "github.com/sirupsen/logrus"
)

// RafflePress scrapes WordPress sites running the RafflePress plugin.
// Listing pages are server-rendered with one card per competition and
// numbered pagination.
type RafflePress struct {
	site    config.Site
	fetcher *fetch.Fetcher
}

func NewRafflePress(site config.Site, fetcher *fetch.Fetcher) *RafflePress {
	return &RafflePress{site: site, fetcher: fetcher}
}

func (s *RafflePress) Source() string {
	return s.site.Name
}

var (
	rafflePressTitleSelectors = []string{".rafflepress-title", "h2", "h3"}
	rafflePressPrizeSelectors = []string{".rafflepress-prize", ".rafflepress-title"}
	rafflePressPriceSelectors = []string{".rafflepress-price", ".ticket-price", "[data-price]"}
	rafflePressLinkSelectors  = []string{"a.rafflepress-button", "a[href]"}
)

const rafflePressCardSelector = ".rafflepress-contest, .rafflepress-listing, .rafflepress-giveaway"

func (s *RafflePress) Fetch(ctx context.Context) ([]models.RawListing, error) {
	maxPages := s.site.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	var listings []models.RawListing
	pageURL := s.site.URL
	for page := 1; page <= maxPages && pageURL != ""; page++ {
		body, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
		}
		doc, err := markup.Parse(string(body))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", pageURL, err)
		}

		for _, card := range doc.Select(rafflePressCardSelector) {
			listing, ok := s.parseCard(card, pageURL)
			if !ok {
				log.WithFields(log.Fields{
					"site": s.site.Name,
					"page": pageURL,
				}).Warn("Skipping card with no title or link")
				continue
			}
			listings = append(listings, listing)
		}

		pageURL = s.nextPageURL(doc, pageURL)
	}
	return listings, nil
}

func (s *RafflePress) parseCard(card *markup.Element, pageURL string) (models.RawListing, bool) {
	title := firstText(card, rafflePressTitleSelectors...)
	href := firstHref(card, rafflePressLinkSelectors...)
	if title == "" || href == "" {
		return models.RawListing{}, false
	}
	competitionURL := absoluteURL(pageURL, href)

	prize := firstText(card, rafflePressPrizeSelectors...)
	if prize == "" {
		prize = title
	}

	var price *float64
	if text := firstText(card, rafflePressPriceSelectors...); text != "" {
		price = normalize.ParsePrice(text)
	}

	return models.RawListing{
		Source:           s.site.Name,
		RaffleID:         listingID(competitionURL),
		Title:            title,
		Prize:            prize,
		URL:              competitionURL,
		Price:            price,
		TicketsSold:      s.metric(card, []string{"[data-sold]", ".rafflepress-progress__sold", ".rafflepress-sold"}, "data-sold"),
		TicketsRemaining: s.metric(card, []string{"[data-remaining]", ".rafflepress-progress__remaining", ".rafflepress-remaining"}, "data-remaining"),
		TotalTickets:     s.metric(card, []string{"[data-total]", "[data-max]", ".rafflepress-progress__total"}, "data-total", "data-max"),
		DeadlineText:     s.deadlineText(card),
	}, true
}

// metric reads the first ticket count it finds, preferring explicit data
// attributes over element text.
func (s *RafflePress) metric(card *markup.Element, selectors []string, attributes ...string) *int {
	for _, selector := range selectors {
		node := card.SelectFirst(selector)
		if node == nil {
			continue
		}
		for _, attribute := range attributes {
			if value, ok := node.Attr(attribute); ok {
				if parsed := normalize.ParseInt(value); parsed != nil {
					return parsed
				}
			}
		}
		if parsed := normalize.ParseInt(node.Text()); parsed != nil {
			return parsed
		}
	}
	return nil
}

func (s *RafflePress) deadlineText(card *markup.Element) string {
	for _, selector := range []string{"[data-end]", ".rafflepress-countdown", ".countdown"} {
		node := card.SelectFirst(selector)
		if node == nil {
			continue
		}
		if value, ok := node.Attr("data-end"); ok && value != "" {
			return value
		}
		if text := node.Text(); text != "" {
			return text
		}
	}
	return ""
}

func (s *RafflePress) nextPageURL(doc *markup.Document, currentURL string) string {
	next := doc.SelectFirst("a.next, a[rel='next'], .pagination a.next")
	if next == nil {
		return ""
	}
	href, ok := next.Attr("href")
	if !ok || href == "" {
		return ""
	}
	return absoluteURL(currentURL, href)
}
