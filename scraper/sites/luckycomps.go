package sites

import (
	"context"
	"fmt"

	"rafflescout/config"
	"rafflescout/markup"
	"rafflescout/models"
	"rafflescout/normalize"
	"rafflescout/render"

	log "github.com/sirupsen/logrus"
)

// LuckyComps scrapes a dashboard whose raffle cards are assembled
// client-side, so it goes through the render cache instead of a plain
// HTTP fetch.
type LuckyComps struct {
	site    config.Site
	cache   *render.Cache
	headers map[string]string
}

func NewLuckyComps(site config.Site, cache *render.Cache, headers map[string]string) *LuckyComps {
	return &LuckyComps{site: site, cache: cache, headers: headers}
}

func (s *LuckyComps) Source() string {
	return s.site.Name
}

func (s *LuckyComps) Fetch(ctx context.Context) ([]models.RawListing, error) {
	waitSelector := s.site.WaitSelector
	if waitSelector == "" {
		waitSelector = "section.raffle"
	}

	html, err := s.cache.Fetch(ctx, s.site.URL, waitSelector, s.headers, true)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", s.site.URL, err)
	}
	doc, err := markup.Parse(html)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.site.URL, err)
	}

	cards := doc.Select(waitSelector)
	if len(cards) == 0 {
		// An empty dashboard is more likely a premature render than a
		// site with no raffles; drop the cached copy so the next run
		// renders fresh instead of serving it for the whole TTL.
		s.cache.Invalidate(s.site.URL, waitSelector)
		log.WithField("site", s.site.Name).Warn("Rendered page has no raffle cards")
		return nil, nil
	}

	var listings []models.RawListing
	for _, card := range cards {
		listing, ok := s.parseCard(card)
		if !ok {
			log.WithField("site", s.site.Name).Debug("Skipping incomplete raffle card")
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *LuckyComps) parseCard(card *markup.Element) (models.RawListing, bool) {
	titleNode := card.SelectFirst("h3.name")
	prizeNode := card.SelectFirst("span.reward")
	if titleNode == nil || prizeNode == nil {
		return models.RawListing{}, false
	}

	// Cards without their own link fall back to the dashboard URL, so
	// the identifier comes from the title instead.
	competitionURL := s.site.URL
	raffleID := slugify(titleNode.Text())
	if link := card.SelectFirst("a.details"); link != nil {
		if href, ok := link.Attr("href"); ok && href != "" {
			competitionURL = absoluteURL(s.site.URL, href)
			raffleID = listingID(competitionURL)
		}
	}

	listing := models.RawListing{
		Source:   s.site.Name,
		RaffleID: raffleID,
		Title:    titleNode.Text(),
		Prize:    prizeNode.Text(),
		URL:      competitionURL,
	}
	if remaining := card.SelectFirst("span.remaining"); remaining != nil {
		listing.TicketsRemaining = normalize.ParseInt(remaining.Text())
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
