package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Site describes one upstream listing source to scrape. Type selects the
// scraper implementation; the auth fields are optional and name an
// environment variable holding a token rather than the token itself.
type Site struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // shopify | rafflepress | prizedraw | luckycomps
	URL          string `yaml:"url"`
	WaitSelector string `yaml:"wait_selector"`
	MaxPages     int    `yaml:"max_pages"`
	AuthHeader   string `yaml:"auth_header"`
	TokenEnv     string `yaml:"token_env"`
	HeaderPrefix string `yaml:"header_prefix"`
	Notes        string `yaml:"notes"`
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites reads the scraper roster from a YAML file.
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var parsed sitesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}

	for i, site := range parsed.Sites {
		if site.Name == "" {
			return nil, fmt.Errorf("sites[%d]: name is required", i)
		}
		if site.Type == "" {
			return nil, fmt.Errorf("site %q: type is required", site.Name)
		}
		if site.URL == "" {
			return nil, fmt.Errorf("site %q: url is required", site.Name)
		}
	}
	return parsed.Sites, nil
}

// AuthHeaders resolves the site's auth configuration into request
// headers. A configured but unset token env var yields no header; the
// caller logs and proceeds anonymously.
func (s Site) AuthHeaders() map[string]string {
	if s.TokenEnv == "" {
		return nil
	}
	token := os.Getenv(s.TokenEnv)
	if token == "" {
		return nil
	}
	header := s.AuthHeader
	if header == "" {
		header = "Authorization"
	}
	prefix := s.HeaderPrefix
	if prefix == "" && header == "Authorization" {
		prefix = "Bearer "
	}
	return map[string]string{header: prefix + token}
}
