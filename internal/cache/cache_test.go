package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheDegradesToMiss(t *testing.T) {
	var c *Cache
	_, ok := c.Get("bubblemap:screenshot:eth:0xabc")
	assert.False(t, ok)
	c.Set("bubblemap:screenshot:eth:0xabc", &Entry{}, time.Minute)

	c = New(nil, time.Minute)
	assert.False(t, c.Enabled())
	_, ok = c.Get("bubblemap:screenshot:eth:0xabc")
	assert.False(t, ok)
}

func TestEntryEncoding(t *testing.T) {
	entry := Entry{
		Image:      []byte{0x89, 'P', 'N', 'G'},
		UpdateDate: "2024-01-01T00:00:00",
	}

	raw, err := json.Marshal(&entry)
	require.NoError(t, err)
	// The image travels base64-encoded inside the JSON document.
	assert.Contains(t, string(raw), `"image":"iVBORw=="`)
	assert.Contains(t, string(raw), `"update_date":"2024-01-01T00:00:00"`)

	var decoded Entry
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, entry, decoded)
}
