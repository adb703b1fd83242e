package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/bubblemaps"
	"github.com/Atlas-Projects/BubbleMapsBot/internal/screenshot"
)

type fakeShots struct {
	image []byte
	err   error
	calls int
	delay time.Duration
}

func (f *fakeShots) Capture(chain, token string, delay time.Duration) ([]byte, error) {
	f.calls++
	f.delay = delay
	if f.err != nil {
		return nil, f.err
	}
	return f.image, nil
}

type fakeMaps struct {
	available    bool
	resolveChain string
	resolveErr   error
	metadata     *bubblemaps.Metadata
	nodes        []bubblemaps.MapNode
}

func (f *fakeMaps) Metadata(chain, token string) (*bubblemaps.Metadata, error) {
	if f.metadata == nil {
		return nil, assert.AnError
	}
	return f.metadata, nil
}

func (f *fakeMaps) MapAvailable(chain, token string) bool {
	return f.available
}

func (f *fakeMaps) ResolveChain(token string) (string, *bubblemaps.Metadata, error) {
	if f.resolveErr != nil {
		return "", nil, f.resolveErr
	}
	return f.resolveChain, f.metadata, nil
}

func (f *fakeMaps) Distribution(chain, token string) ([]bubblemaps.MapNode, error) {
	if f.nodes == nil {
		return nil, assert.AnError
	}
	return f.nodes, nil
}

func (f *fakeMaps) AddressDetails(chain, token, address string) (*bubblemaps.MapNode, error) {
	for i := range f.nodes {
		if f.nodes[i].Address == address {
			return &f.nodes[i], nil
		}
	}
	return nil, nil
}

func (f *fakeMaps) IframeURL(chain, token string) string {
	return "https://app.bubblemaps.io/" + chain + "/token/" + token
}

func (f *fakeMaps) SupportedChains() []string {
	return []string{"eth", "bsc"}
}

type fakeMarket struct {
	doc map[string]any
}

func (f *fakeMarket) MarketData(platform, address string) (map[string]any, error) {
	if f.doc == nil {
		return nil, assert.AnError
	}
	return f.doc, nil
}

func newTestApp(shots *fakeShots, maps *fakeMaps, market *fakeMarket) *fiber.App {
	app := fiber.New()
	MountController(app, &Controller{Shots: shots, Maps: maps, Market: market})
	return app
}

func TestMapshotReturnsPNG(t *testing.T) {
	shots := &fakeShots{image: []byte("png-bytes")}
	app := newTestApp(shots, &fakeMaps{available: true}, &fakeMarket{})

	resp, err := app.Test(httptest.NewRequest("GET", "/mapshot/eth/0xabc?delay=3", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "https://app.bubblemaps.io/eth/token/0xabc", resp.Header.Get("X-Map-URL"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), body)
	assert.Equal(t, 3*time.Second, shots.delay)
}

func TestMapshotClampsQueryDelay(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  time.Duration
	}{
		{"oversized", "?delay=100000000", 60 * time.Second},
		{"negative", "?delay=-5", 0},
		{"in range", "?delay=30", 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shots := &fakeShots{image: []byte("png-bytes")}
			app := newTestApp(shots, &fakeMaps{}, &fakeMarket{})

			resp, err := app.Test(httptest.NewRequest("GET", "/mapshot/eth/0xabc"+tt.query, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, shots.delay)
		})
	}
}

func TestChainsListsSupportedChains(t *testing.T) {
	app := newTestApp(&fakeShots{}, &fakeMaps{}, &fakeMarket{})

	resp, err := app.Test(httptest.NewRequest("GET", "/chains", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Chains []string `json:"chains"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"eth", "bsc"}, body.Chains)
}

func TestMapshotErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no update info", screenshot.ErrNoUpdateInfo, fiber.StatusNotFound},
		{"unavailable", screenshot.ErrUnavailable, fiber.StatusNotFound},
		{"render failed", screenshot.ErrRenderFailed, fiber.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shots := &fakeShots{err: tt.err}
			app := newTestApp(shots, &fakeMaps{}, &fakeMarket{})

			resp, err := app.Test(httptest.NewRequest("GET", "/mapshot/eth/0xabc", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMapshotByTokenResolvesChain(t *testing.T) {
	shots := &fakeShots{image: []byte("png-bytes")}
	maps := &fakeMaps{resolveChain: "bsc"}
	app := newTestApp(shots, maps, &fakeMarket{})

	payload, _ := json.Marshal(MapshotBody{Token: "0xabc"})
	req := httptest.NewRequest("POST", "/mapshot", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, shots.calls)
	assert.Equal(t, 10*time.Second, shots.delay)
}

func TestMapshotByTokenRejectsInvalidBody(t *testing.T) {
	app := newTestApp(&fakeShots{}, &fakeMaps{}, &fakeMarket{})

	payload, _ := json.Marshal(MapshotBody{Token: "x"})
	req := httptest.NewRequest("POST", "/mapshot", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAvailability(t *testing.T) {
	app := newTestApp(&fakeShots{}, &fakeMaps{available: true}, &fakeMarket{})

	resp, err := app.Test(httptest.NewRequest("GET", "/availability/eth/0xabc", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["available"])
}

func TestDistributionTopLimit(t *testing.T) {
	maps := &fakeMaps{nodes: []bubblemaps.MapNode{
		{Address: "0x1", Amount: 300},
		{Address: "0x2", Amount: 200},
		{Address: "0x3", Amount: 100},
	}}
	app := newTestApp(&fakeShots{}, maps, &fakeMarket{})

	resp, err := app.Test(httptest.NewRequest("GET", "/distribution/eth/0xabc?top=2", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Holders []bubblemaps.MapNode `json:"holders"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Holders, 2)
}

func TestMarketDataNotFound(t *testing.T) {
	app := newTestApp(&fakeShots{}, &fakeMaps{}, &fakeMarket{doc: nil})

	resp, err := app.Test(httptest.NewRequest("GET", "/market/ethereum/0xabc", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAddressDetailsNotFound(t *testing.T) {
	maps := &fakeMaps{nodes: []bubblemaps.MapNode{{Address: "0x1"}}}
	app := newTestApp(&fakeShots{}, maps, &fakeMarket{})

	resp, err := app.Test(httptest.NewRequest("GET", "/address/eth/0xabc/0xmissing", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
