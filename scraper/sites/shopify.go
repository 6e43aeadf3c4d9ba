package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"rafflescout/config"
	"rafflescout/fetch"
	"rafflescout/models"

	log "github.com/sirupsen/logrus"
)

// Shopify scrapes Shopify storefronts through their product JSON
// endpoints. The storefront HTML is fetched once to discover endpoints
// it links to; well-known collection paths are tried as well.
type Shopify struct {
	site    config.Site
	fetcher *fetch.Fetcher
}

func NewShopify(site config.Site, fetcher *fetch.Fetcher) *Shopify {
	return &Shopify{site: site, fetcher: fetcher}
}

func (s *Shopify) Source() string {
	return s.site.Name
}

var (
	jsonLinkPattern     = regexp.MustCompile(`(?i)(?:src|href)="([^"]+\.json)"`)
	dataEndpointPattern = regexp.MustCompile(`(?i)data-endpoint="([^"]+)"`)

	collectionSlugs = []string{"draws", "raffles", "products"}
)

type shopifyVariant struct {
	Price             string `json:"price"`
	InventoryQuantity *int   `json:"inventory_quantity"`
}

type shopifyProduct struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Handle           string           `json:"handle"`
	BodyHTML         string           `json:"body_html"`
	Variants         []shopifyVariant `json:"variants"`
	TicketsRemaining *int             `json:"tickets_remaining"`
	RaffleDeadline   string           `json:"raffle_deadline"`
	Deadline         string           `json:"deadline"`
}

type shopifyPayload struct {
	Products []shopifyProduct `json:"products"`
	Product  *shopifyProduct  `json:"product"`
}

func (s *Shopify) Fetch(ctx context.Context) ([]models.RawListing, error) {
	endpoints := s.discoverEndpoints(ctx)

	seen := make(map[string]bool)
	var listings []models.RawListing
	for _, endpoint := range endpoints {
		body, err := s.fetcher.Fetch(ctx, endpoint)
		if err != nil {
			log.WithFields(log.Fields{
				"site":     s.site.Name,
				"endpoint": endpoint,
			}).WithError(err).Debug("Endpoint fetch failed")
			continue
		}

		var payload shopifyPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			log.WithFields(log.Fields{
				"site":     s.site.Name,
				"endpoint": endpoint,
			}).Debug("Endpoint did not return product JSON")
			continue
		}

		products := payload.Products
		if payload.Product != nil {
			products = append(products, *payload.Product)
		}
		for _, product := range products {
			listing, ok := s.toListing(product)
			if !ok || seen[listing.RaffleID] {
				continue
			}
			seen[listing.RaffleID] = true
			listings = append(listings, listing)
		}
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("site %q: no product data at any of %d endpoints", s.site.Name, len(endpoints))
	}
	return listings, nil
}

// discoverEndpoints combines endpoints linked from the storefront HTML
// with well-known Shopify collection paths. A failed HTML fetch is not
// fatal since the well-known paths usually suffice.
func (s *Shopify) discoverEndpoints(ctx context.Context) []string {
	var endpoints []string
	seen := make(map[string]bool)
	add := func(endpoint string) {
		if endpoint != "" && !seen[endpoint] {
			seen[endpoint] = true
			endpoints = append(endpoints, endpoint)
		}
	}

	body, err := s.fetcher.Fetch(ctx, s.site.URL)
	if err != nil {
		log.WithField("site", s.site.Name).WithError(err).Warn("Storefront fetch failed, trying well-known endpoints only")
	} else {
		html := string(body)
		for _, pattern := range []*regexp.Regexp{jsonLinkPattern, dataEndpointPattern} {
			for _, match := range pattern.FindAllStringSubmatch(html, -1) {
				add(absoluteURL(s.site.URL, match[1]))
			}
		}
	}

	for _, slug := range collectionSlugs {
		add(absoluteURL(s.site.URL, fmt.Sprintf("/collections/%s/products.json", slug)))
		add(absoluteURL(s.site.URL, fmt.Sprintf("/%s.json", slug)))
	}
	return endpoints
}

func (s *Shopify) toListing(product shopifyProduct) (models.RawListing, bool) {
	if product.Title == "" || product.Handle == "" {
		return models.RawListing{}, false
	}

	listing := models.RawListing{
		Source:           s.site.Name,
		RaffleID:         product.Handle,
		Title:            product.Title,
		Prize:            product.Title,
		URL:              absoluteURL(s.site.URL, "/products/"+product.Handle),
		TicketsRemaining: remainingTickets(product),
		DeadlineText:     deadlineField(product),
		Metadata:         map[string]any{"product_id": product.ID},
	}
	if len(product.Variants) > 0 {
		if price, err := strconv.ParseFloat(product.Variants[0].Price, 64); err == nil {
			listing.Price = &price
		}
	}
	return listing, true
}

// remainingTickets sums variant inventory when any variant reports it,
// falling back to an explicit tickets_remaining field.
func remainingTickets(product shopifyProduct) *int {
	total := 0
	hasInventory := false
	for _, variant := range product.Variants {
		if variant.InventoryQuantity != nil {
			if *variant.InventoryQuantity > 0 {
				total += *variant.InventoryQuantity
			}
			hasInventory = true
		}
	}
	if hasInventory {
		return &total
	}
	return product.TicketsRemaining
}

func deadlineField(product shopifyProduct) string {
	if product.RaffleDeadline != "" {
		return product.RaffleDeadline
	}
	return product.Deadline
}
