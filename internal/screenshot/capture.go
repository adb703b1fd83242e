// Package screenshot produces up-to-date map screenshots for tokens,
// reusing cached images as long as the upstream map has not been
// recomputed since they were taken.
package screenshot

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/cache"
)

// stampLayout is the second-resolution form the freshness timestamp is
// compared and stored in.
const stampLayout = "2006-01-02T15:04:05"

// AssetKey identifies a token on a chain.
type AssetKey struct {
	Chain string
	Token string
}

// MetadataSource is the upstream authority on map freshness and
// availability.
type MetadataSource interface {
	// UpdateDate returns the timestamp the token's map was last computed
	// at, truncated to seconds. Any error means capture cannot proceed.
	UpdateDate(chain, token string) (time.Time, error)
	// MapAvailable reports whether the upstream can render the token.
	MapAvailable(chain, token string) bool
}

// ImageCache is the hot screenshot tier.
type ImageCache interface {
	Get(key string) (*cache.Entry, bool)
	Set(key string, entry *cache.Entry, ttl time.Duration)
}

// ImageStore is the durable screenshot tier.
type ImageStore interface {
	Get(chain, token string) (image []byte, updateDate time.Time, found bool, err error)
	Upsert(chain, token string, updateDate time.Time, image []byte) error
}

// Renderer produces a fresh screenshot through the browser.
type Renderer interface {
	Render(chain, token string, delay time.Duration) ([]byte, error)
}

// Service coordinates captures: one in-flight capture per token, cache
// tiers consulted in priority order, render only on a total miss.
type Service struct {
	meta   MetadataSource
	hot    ImageCache
	store  ImageStore
	render Renderer
	useHot bool

	mu    sync.Mutex
	locks map[AssetKey]*sync.Mutex
}

// NewService builds the capture orchestrator. hot may be nil or disabled
// via useHot=false; the durable store and renderer are required.
func NewService(meta MetadataSource, hot ImageCache, store ImageStore, render Renderer, useHot bool) *Service {
	return &Service{
		meta:   meta,
		hot:    hot,
		store:  store,
		render: render,
		useHot: useHot && hot != nil,
		locks:  make(map[AssetKey]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing captures for key, creating it on
// first use. Locks are never evicted; they are a few words each.
func (s *Service) lockFor(key AssetKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func cacheKey(chain, token string) string {
	return fmt.Sprintf("bubblemap:screenshot:%s:%s", chain, token)
}

// Capture returns an up-to-date PNG of the token's map. The per-token
// lock is held across the whole sequence, so concurrent requests for the
// same token wait and then reuse the freshly written cache instead of
// rendering again. delay is the settle time given to the graph
// simulation; use DefaultRenderDelay when in doubt.
//
// Failures are ErrNoUpdateInfo, ErrUnavailable or ErrRenderFailed; cache
// backend problems only ever degrade to misses.
func (s *Service) Capture(chain, token string, delay time.Duration) ([]byte, error) {
	key := AssetKey{Chain: chain, Token: token}
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	latest, err := s.meta.UpdateDate(chain, token)
	if err != nil {
		log.Printf("screenshot: no update date for %s:%s: %v", chain, token, err)
		return nil, fmt.Errorf("%w: %s:%s", ErrNoUpdateInfo, chain, token)
	}
	latest = latest.Truncate(time.Second)
	stamp := latest.Format(stampLayout)

	hotKey := cacheKey(chain, token)
	if s.useHot {
		if entry, ok := s.hot.Get(hotKey); ok {
			if entry.UpdateDate == stamp {
				log.Printf("screenshot: cache hit for %s", hotKey)
				return entry.Image, nil
			}
			log.Printf("screenshot: cache entry for %s is stale (%s != %s)", hotKey, entry.UpdateDate, stamp)
		}
	}

	image, storedAt, found, err := s.store.Get(chain, token)
	if err != nil {
		log.Printf("screenshot: database read for %s:%s failed: %v", chain, token, err)
	} else if found && storedAt.Truncate(time.Second).Equal(latest) {
		log.Printf("screenshot: up-to-date database row for %s:%s", chain, token)
		if s.useHot {
			s.hot.Set(hotKey, &cache.Entry{Image: image, UpdateDate: stamp}, 0)
		}
		return image, nil
	}

	if !s.meta.MapAvailable(chain, token) {
		return nil, fmt.Errorf("%w: %s:%s", ErrUnavailable, chain, token)
	}

	shot, err := s.render.Render(chain, token, delay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	if s.useHot {
		s.hot.Set(hotKey, &cache.Entry{Image: shot, UpdateDate: stamp}, 0)
	}
	if err := s.store.Upsert(chain, token, latest, shot); err != nil {
		log.Printf("screenshot: database write for %s:%s failed: %v", chain, token, err)
	} else {
		log.Printf("screenshot: saved screenshot for %s:%s", chain, token)
	}
	return shot, nil
}

// CaptureAll captures several tokens concurrently with the default delay,
// dropping the ones that fail. Order of the returned images matches the
// order of the keys that succeeded.
func (s *Service) CaptureAll(keys []AssetKey) [][]byte {
	images := make([][]byte, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key AssetKey) {
			defer wg.Done()
			shot, err := s.Capture(key.Chain, key.Token, DefaultRenderDelay)
			if err != nil {
				log.Printf("screenshot: capture for %s:%s failed: %v", key.Chain, key.Token, err)
				return
			}
			images[i] = shot
		}(i, key)
	}
	wg.Wait()

	out := make([][]byte, 0, len(keys))
	for _, img := range images {
		if img != nil {
			out = append(out, img)
		}
	}
	return out
}
