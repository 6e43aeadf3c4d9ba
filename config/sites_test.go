package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSites = `
sites:
  - name: acme-raffles
    type: rafflepress
    url: https://acme-raffles.example.com/competitions
    max_pages: 3
  - name: draws-store
    type: shopify
    url: https://draws.example.com
  - name: lucky
    type: luckycomps
    url: https://lucky.example.com/dashboard
    wait_selector: "section.raffle"
    token_env: LUCKY_API_TOKEN
`

func writeSites(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSites(t *testing.T) {
	sites, err := LoadSites(writeSites(t, sampleSites))
	require.NoError(t, err)
	require.Len(t, sites, 3)

	assert.Equal(t, "acme-raffles", sites[0].Name)
	assert.Equal(t, "rafflepress", sites[0].Type)
	assert.Equal(t, 3, sites[0].MaxPages)
	assert.Equal(t, "section.raffle", sites[2].WaitSelector)
}

func TestLoadSites_Validation(t *testing.T) {
	_, err := LoadSites(writeSites(t, "sites:\n  - type: shopify\n    url: https://x.example.com\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	_, err = LoadSites(writeSites(t, "sites:\n  - name: x\n    type: shopify\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")

	_, err = LoadSites(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestSiteAuthHeaders(t *testing.T) {
	site := Site{Name: "lucky", TokenEnv: "LUCKY_API_TOKEN"}

	t.Run("token present", func(t *testing.T) {
		t.Setenv("LUCKY_API_TOKEN", "sekrit")
		headers := site.AuthHeaders()
		assert.Equal(t, map[string]string{"Authorization": "Bearer sekrit"}, headers)
	})

	t.Run("token missing proceeds anonymously", func(t *testing.T) {
		t.Setenv("LUCKY_API_TOKEN", "")
		assert.Nil(t, site.AuthHeaders())
	})

	t.Run("custom header no prefix", func(t *testing.T) {
		t.Setenv("LUCKY_API_TOKEN", "sekrit")
		custom := Site{TokenEnv: "LUCKY_API_TOKEN", AuthHeader: "X-Api-Key"}
		assert.Equal(t, map[string]string{"X-Api-Key": "sekrit"}, custom.AuthHeaders())
	})
}
