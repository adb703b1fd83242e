// Package bubblemaps wraps the legacy Bubblemaps HTTP API: token map
// metadata (including the map's last-computed timestamp, which drives
// screenshot staleness), map availability and holder map data.
package bubblemaps

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/cache"
)

// TokenBook records which chain a token address resolved on, so chain
// resolution can skip the full scan next time.
type TokenBook interface {
	Add(chain, token string) error
	Find(token string) (chain string, ok bool, err error)
}

// Metadata is the map-metadata document for a token.
type Metadata struct {
	Status                string            `json:"status"`
	Message               string            `json:"message,omitempty"`
	DtUpdate              string            `json:"dt_update,omitempty"`
	TsUpdate              int64             `json:"ts_update,omitempty"`
	FullName              string            `json:"full_name,omitempty"`
	Symbol                string            `json:"symbol,omitempty"`
	DecentralisationScore float64           `json:"decentralisation_score,omitempty"`
	IdentifiedSupply      *IdentifiedSupply `json:"identified_supply,omitempty"`
}

type IdentifiedSupply struct {
	PercentInCEXs      float64 `json:"percent_in_cexs"`
	PercentInContracts float64 `json:"percent_in_contracts"`
}

// MapNode is one holder in the map data.
type MapNode struct {
	Address          string  `json:"address"`
	Amount           float64 `json:"amount"`
	IsContract       bool    `json:"is_contract"`
	Name             string  `json:"name,omitempty"`
	Percentage       float64 `json:"percentage"`
	TransactionCount int     `json:"transaction_count,omitempty"`
}

// MapData is the map-data document for a token.
type MapData struct {
	Version      int       `json:"version,omitempty"`
	Chain        string    `json:"chain,omitempty"`
	TokenAddress string    `json:"token_address,omitempty"`
	FullName     string    `json:"full_name,omitempty"`
	Symbol       string    `json:"symbol,omitempty"`
	DtUpdate     string    `json:"dt_update,omitempty"`
	Nodes        []MapNode `json:"nodes"`
}

type availabilityResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Availability bool   `json:"availability"`
}

type Client struct {
	http       *resty.Client
	apiURL     string
	iframeBase string
	cache      *cache.Cache
	book       TokenBook
	chains     []string
}

// NewClient builds a client against apiURL (the legacy API host) and
// iframeBase (the public map host). cache and book may be nil.
func NewClient(apiURL, iframeBase string, hot *cache.Cache, book TokenBook, chains []string) *Client {
	return &Client{
		http:       resty.New(),
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		iframeBase: strings.TrimSuffix(iframeBase, "/"),
		cache:      hot,
		book:       book,
		chains:     chains,
	}
}

// IframeURL returns the public map page for a token, which is both the
// user-facing link and the page the render engine captures.
func (c *Client) IframeURL(chain, token string) string {
	return fmt.Sprintf("%s/%s/token/%s", c.iframeBase, chain, token)
}

// SupportedChains returns the configured chain identifiers.
func (c *Client) SupportedChains() []string {
	return c.chains
}

func (c *Client) fetchMetadata(chain, token string) (*Metadata, error) {
	var md Metadata
	resp, err := c.http.R().
		SetQueryParams(map[string]string{"chain": chain, "token": token}).
		SetResult(&md).
		Get(c.apiURL + "/map-metadata")
	if err != nil {
		return nil, fmt.Errorf("fetching metadata for %s:%s: %w", chain, token, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching metadata for %s:%s: %s", chain, token, resp.Status())
	}
	if md.Status != "OK" {
		return nil, fmt.Errorf("metadata for %s:%s not available: %s", chain, token, md.Message)
	}
	return &md, nil
}

// Metadata returns the metadata document for a token, cached under the
// default TTL.
func (c *Client) Metadata(chain, token string) (*Metadata, error) {
	key := fmt.Sprintf("metadata:%s:%s", chain, token)

	var cached Metadata
	if c.cache.GetJSON(key, &cached) {
		return &cached, nil
	}

	md, err := c.fetchMetadata(chain, token)
	if err != nil {
		return nil, err
	}
	c.cache.SetJSON(key, md, 0)
	return md, nil
}

// UpdateDate returns the timestamp at which the token's map was last
// computed upstream, truncated to whole seconds. This bypasses the
// metadata cache: it is the staleness authority for captured screenshots.
func (c *Client) UpdateDate(chain, token string) (time.Time, error) {
	md, err := c.fetchMetadata(chain, token)
	if err != nil {
		return time.Time{}, err
	}
	if md.DtUpdate == "" {
		return time.Time{}, fmt.Errorf("no dt_update in metadata for %s:%s", chain, token)
	}
	ts, err := parseUpdateDate(md.DtUpdate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing dt_update %q for %s:%s: %w", md.DtUpdate, chain, token, err)
	}
	return ts.Truncate(time.Second), nil
}

// dt_update comes back as ISO-8601, usually without a timezone and with
// fractional seconds.
var updateDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parseUpdateDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range updateDateLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// MapAvailable reports whether the upstream has a renderable map for the
// token. Any error is treated as unavailable.
func (c *Client) MapAvailable(chain, token string) bool {
	var out availabilityResponse
	resp, err := c.http.R().
		SetQueryParams(map[string]string{"chain": chain, "token": token}).
		SetResult(&out).
		Get(c.apiURL + "/map-availability")
	if err != nil {
		log.Printf("bubblemaps: availability check for %s:%s failed: %v", chain, token, err)
		return false
	}
	if resp.IsError() || out.Status != "OK" {
		log.Printf("bubblemaps: availability check for %s:%s returned %s: %s", chain, token, resp.Status(), out.Message)
		return false
	}
	return out.Availability
}

// ResolveChain finds the chain a token address lives on, preferring the
// chain recorded by earlier lookups and otherwise scanning every
// supported chain. Successful resolutions are recorded.
func (c *Client) ResolveChain(token string) (string, *Metadata, error) {
	if c.book != nil {
		chain, ok, err := c.book.Find(token)
		if err != nil {
			log.Printf("bubblemaps: successful-token lookup for %s failed: %v", token, err)
		} else if ok {
			if md, err := c.Metadata(chain, token); err == nil {
				c.record(chain, token)
				return chain, md, nil
			}
			log.Printf("bubblemaps: recorded chain %s no longer resolves %s, rescanning", chain, token)
		}
	}

	for _, chain := range c.chains {
		md, err := c.Metadata(chain, token)
		if err != nil {
			continue
		}
		c.record(chain, token)
		return chain, md, nil
	}
	return "", nil, fmt.Errorf("token %s not found on any supported chain", token)
}

func (c *Client) record(chain, token string) {
	if c.book == nil {
		return
	}
	if err := c.book.Add(chain, token); err != nil {
		log.Printf("bubblemaps: recording successful token %s:%s failed: %v", chain, token, err)
	}
}

// MapData returns the holder map for a token, cached under the default TTL.
func (c *Client) MapData(chain, token string) (*MapData, error) {
	key := fmt.Sprintf("bubblemaps:%s:%s", chain, token)

	var cached MapData
	if c.cache.GetJSON(key, &cached) {
		return &cached, nil
	}

	var data MapData
	resp, err := c.http.R().
		SetQueryParams(map[string]string{"chain": chain, "token": token}).
		SetResult(&data).
		Get(c.apiURL + "/map-data")
	if err != nil {
		return nil, fmt.Errorf("fetching map data for %s:%s: %w", chain, token, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching map data for %s:%s: %s", chain, token, resp.Status())
	}
	c.cache.SetJSON(key, &data, 0)
	return &data, nil
}

// Distribution returns the token's holders sorted by amount, largest first.
func (c *Client) Distribution(chain, token string) ([]MapNode, error) {
	data, err := c.MapData(chain, token)
	if err != nil {
		return nil, err
	}
	nodes := make([]MapNode, len(data.Nodes))
	copy(nodes, data.Nodes)
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Amount > nodes[j].Amount
	})
	return nodes, nil
}

// AddressDetails returns the holder node matching address,
// case-insensitively, or nil when the address is not in the map.
func (c *Client) AddressDetails(chain, token, address string) (*MapNode, error) {
	data, err := c.MapData(chain, token)
	if err != nil {
		return nil, err
	}
	for i := range data.Nodes {
		if strings.EqualFold(data.Nodes[i].Address, address) {
			return &data.Nodes[i], nil
		}
	}
	return nil, nil
}
