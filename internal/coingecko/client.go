// Package coingecko fetches token market data from the CoinGecko API.
package coingecko

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	http   *resty.Client
	apiURL string
}

func NewClient(apiURL string) *Client {
	return &Client{
		http:   resty.New(),
		apiURL: strings.TrimSuffix(apiURL, "/"),
	}
}

// MarketData looks a token up by contract address on the given platform.
// When the contract document carries no market data it falls back to a
// second lookup by the resolved coin id.
func (c *Client) MarketData(platform, address string) (map[string]any, error) {
	var doc map[string]any
	resp, err := c.http.R().
		SetResult(&doc).
		Get(fmt.Sprintf("%s/coins/%s/contract/%s", c.apiURL, platform, address))
	if err != nil {
		return nil, fmt.Errorf("fetching market data for %s/%s: %w", platform, address, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching market data for %s/%s: %s", platform, address, resp.Status())
	}
	if _, ok := doc["market_data"]; ok {
		return doc, nil
	}

	coinID, _ := doc["id"].(string)
	if coinID == "" {
		return nil, fmt.Errorf("no coin id found for %s/%s", platform, address)
	}
	log.Printf("coingecko: contract lookup for %s/%s had no market data, retrying by id %s", platform, address, coinID)

	var market map[string]any
	resp, err = c.http.R().
		SetQueryParams(map[string]string{
			"localization":   "false",
			"tickers":        "false",
			"market_data":    "true",
			"community_data": "false",
			"developer_data": "false",
			"sparkline":      "false",
		}).
		SetResult(&market).
		Get(fmt.Sprintf("%s/coins/%s", c.apiURL, coinID))
	if err != nil {
		return nil, fmt.Errorf("fetching market data for coin %s: %w", coinID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching market data for coin %s: %s", coinID, resp.Status())
	}
	return market, nil
}
