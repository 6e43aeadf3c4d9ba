package sites

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rafflescout/config"
	"rafflescout/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prizeDrawPage(nextDisabled bool) string {
	nextClass := "pagination-next"
	if nextDisabled {
		nextClass = "pagination-next disabled"
	}
	return fmt.Sprintf(`
<html><body>
  <div class="raffle-card">
    <h2 class="title">Dream car draw</h2>
    <p class="prize">Porsche 911</p>
    <span class="tickets">2,499 remaining</span>
    <span class="price">$10.00</span>
    <time class="deadline" datetime="2026-10-01T18:00:00Z">1 Oct</time>
    <a class="cta" href="/draws/dream-car">Enter</a>
  </div>
  <div class="raffle-card">
    <h2 class="title">No link card</h2>
  </div>
  <a class="%s" href="#">Next</a>
</body></html>`, nextClass)
}

func TestPrizeDrawParsesCards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, prizeDrawPage(true))
	}))
	defer server.Close()

	scraper := NewPrizeDraw(config.Site{
		Name: "prizedraw-demo",
		URL:  server.URL + "/draws",
	}, fetch.New(1, 0.001, 2*time.Second))

	listings, err := scraper.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)

	listing := listings[0]
	assert.Equal(t, "prizedraw-demo", listing.Source)
	assert.Equal(t, "dream-car", listing.RaffleID)
	assert.Equal(t, "Dream car draw", listing.Title)
	assert.Equal(t, "Porsche 911", listing.Prize)
	require.NotNil(t, listing.TicketsRemaining)
	assert.Equal(t, 2499, *listing.TicketsRemaining)
	require.NotNil(t, listing.Price)
	assert.InDelta(t, 10.0, *listing.Price, 0.001)
	assert.Equal(t, "2026-10-01T18:00:00Z", listing.DeadlineText)
}

func TestPrizeDrawStopsWhenNextDisabled(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		fmt.Fprint(w, prizeDrawPage(page == "2"))
	}))
	defer server.Close()

	scraper := NewPrizeDraw(config.Site{
		Name:     "prizedraw-demo",
		URL:      server.URL + "/draws",
		MaxPages: 5,
	}, fetch.New(1, 0.001, 2*time.Second))

	listings, err := scraper.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Len(t, listings, 2)
}
