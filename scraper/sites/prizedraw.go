package sites

import (
	"context"
	"fmt"
	"strings"

	"rafflescout/config"
	"rafflescout/fetch"
	"rafflescout/markup"
	"rafflescout/models"
	"rafflescout/normalize"

	log "github.com/sirupsen/logrus"
)

// PrizeDraw scrapes server-rendered prize draw listings paginated with a
// ?page=N query parameter.
type PrizeDraw struct {
	site    config.Site
	fetcher *fetch.Fetcher
}

func NewPrizeDraw(site config.Site, fetcher *fetch.Fetcher) *PrizeDraw {
	return &PrizeDraw{site: site, fetcher: fetcher}
}

func (s *PrizeDraw) Source() string {
	return s.site.Name
}

func (s *PrizeDraw) Fetch(ctx context.Context) ([]models.RawListing, error) {
	maxPages := s.site.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	var listings []models.RawListing
	for page := 1; page <= maxPages; page++ {
		pageURL := fmt.Sprintf("%s?page=%d", s.site.URL, page)
		body, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
		}
		doc, err := markup.Parse(string(body))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", pageURL, err)
		}

		for _, card := range doc.Select("div.raffle-card") {
			listing, ok := s.parseCard(card, pageURL)
			if !ok {
				log.WithFields(log.Fields{
					"site": s.site.Name,
					"page": pageURL,
				}).Warn("Skipping incomplete raffle card")
				continue
			}
			listings = append(listings, listing)
		}

		if !hasNextPage(doc) {
			break
		}
	}
	return listings, nil
}

func (s *PrizeDraw) parseCard(card *markup.Element, pageURL string) (models.RawListing, bool) {
	titleNode := card.SelectFirst("h2.title")
	link := card.SelectFirst("a.cta")
	if titleNode == nil || link == nil {
		return models.RawListing{}, false
	}
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return models.RawListing{}, false
	}
	competitionURL := absoluteURL(pageURL, href)

	listing := models.RawListing{
		Source:   s.site.Name,
		RaffleID: listingID(competitionURL),
		Title:    titleNode.Text(),
		URL:      competitionURL,
	}
	if prize := card.SelectFirst("p.prize"); prize != nil {
		listing.Prize = prize.Text()
	}
	if tickets := card.SelectFirst("span.tickets"); tickets != nil {
		listing.TicketsRemaining = normalize.ParseInt(tickets.Text())
	}
	if price := card.SelectFirst("span.price"); price != nil {
		listing.Price = normalize.ParsePrice(price.Text())
	}
	if deadline := card.SelectFirst("time.deadline"); deadline != nil {
		if value, ok := deadline.Attr("datetime"); ok && value != "" {
			listing.DeadlineText = value
		} else {
			listing.DeadlineText = deadline.Text()
		}
	}
	return listing, true
}

func hasNextPage(doc *markup.Document) bool {
	next := doc.SelectFirst("a.pagination-next")
	if next == nil {
		return false
	}
	if class, ok := next.Attr("class"); ok {
		for _, name := range strings.Fields(class) {
			if name == "disabled" {
				return false
			}
		}
	}
	return true
}
