package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DefaultBaseURL is the public card database endpoint the fetch command
// talks to by default.
const DefaultBaseURL = "https://api.dotgg.gg/cgfw/getcards"

var idNumberPattern = regexp.MustCompile(`-0*(\d+)$`)

// remoteCard mirrors the upstream API shape. Price arrives as a string and
// several fields use different names than ours.
type remoteCard struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	SetName string `json:"set_name"`
	Type    string `json:"type"`
	Flavor  string `json:"flavor"`
	Effect  string `json:"effect"`
	Image   string `json:"image"`
	Price   string `json:"price"`
}

// Fetch downloads the card list for game from a dotgg-style endpoint and
// simplifies it into catalog records. baseURL empty means DefaultBaseURL.
func Fetch(ctx context.Context, client *http.Client, baseURL, game string) ([]Card, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	endpoint := baseURL + "?game=" + url.QueryEscape(game)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	var remote []remoteCard
	if err := json.Unmarshal(body, &remote); err != nil {
		return nil, fmt.Errorf("parse catalog response: %w", err)
	}

	cards := make([]Card, 0, len(remote))
	for _, rc := range remote {
		price, _ := strconv.ParseFloat(strings.TrimSpace(rc.Price), 64)
		cards = append(cards, Card{
			ID:      rc.ID,
			Name:    rc.Name,
			Number:  NumberFromID(rc.ID),
			SetName: rc.SetName,
			SetCode: setCodeFromID(rc.ID),
			Type:    rc.Type,
			Flavor:  rc.Flavor,
			Effect:  rc.Effect,
			Image:   rc.Image,
			Price:   price,
		})
	}
	return cards, nil
}

// NumberFromID derives the collector number from an ID like "OGN-170",
// stripping leading zeros ("OGN-042" yields "42"). Unrecognized IDs return "".
func NumberFromID(id string) string {
	m := idNumberPattern.FindStringSubmatch(id)
	if m == nil {
		return ""
	}
	return m[1]
}

// setCodeFromID returns the prefix before the first dash, "OGN" for "OGN-170".
func setCodeFromID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return ""
}
