package scraper

import (
	"context"
	"fmt"

	"rafflescout/config"
	"rafflescout/fetch"
	"rafflescout/models"
	"rafflescout/render"
	"rafflescout/scraper/sites"

	log "github.com/sirupsen/logrus"
)

// Scraper fetches raw listings from one upstream source. Implementations
// must not panic on malformed markup; a bad page is an error return, a bad
// entry within a page is skipped.
type Scraper interface {
	// Source returns the stable name used as the listing namespace.
	Source() string

	// Fetch retrieves the current listings from the upstream site.
	Fetch(ctx context.Context) ([]models.RawListing, error)
}

// FromConfig builds a scraper for a configured site. The returned scraper
// carries the site's auth headers on every request it makes.
func FromConfig(site config.Site, fetcher *fetch.Fetcher, cache *render.Cache) (Scraper, error) {
	headers := site.AuthHeaders()
	if site.TokenEnv != "" && headers == nil {
		log.WithFields(log.Fields{
			"site":     site.Name,
			"tokenEnv": site.TokenEnv,
		}).Warn("Auth token env var not set, scraping anonymously")
	}
	if headers != nil {
		fetcher = fetcher.WithHeaders(headers)
	}

	switch site.Type {
	case "shopify":
		return sites.NewShopify(site, fetcher), nil
	case "rafflepress":
		return sites.NewRafflePress(site, fetcher), nil
	case "prizedraw":
		return sites.NewPrizeDraw(site, fetcher), nil
	case "luckycomps":
		return sites.NewLuckyComps(site, cache, headers), nil
	default:
		return nil, fmt.Errorf("site %q: unknown scraper type %q", site.Name, site.Type)
	}
}

// FromSites builds scrapers for a whole roster, failing fast on the first
// misconfigured entry.
func FromSites(roster []config.Site, fetcher *fetch.Fetcher, cache *render.Cache) ([]Scraper, error) {
	scrapers := make([]Scraper, 0, len(roster))
	for _, site := range roster {
		s, err := FromConfig(site, fetcher, cache)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, nil
}
