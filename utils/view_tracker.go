package utils

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// seenTTL bounds how long a client counts as "already viewed" an item.
const seenTTL = 24 * time.Hour

var (
	seenViews   = map[string]time.Time{}
	seenViewsMu sync.Mutex
)

// MarkViewedOnce records that a client viewed a news item and reports whether
// this is the first time inside the dedupe window. Prefers Redis SETNX so the
// answer survives restarts; falls back to process memory.
func MarkViewedOnce(newsID uint, clientKey string) bool {
	key := fmt.Sprintf("viewed:news:%d:%s", newsID, clientKey)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := rc.SetNX(ctx, key, "1", seenTTL).Result(); err == nil {
			return ok
		}
	}

	seenViewsMu.Lock()
	defer seenViewsMu.Unlock()
	now := time.Now()
	if at, ok := seenViews[key]; ok && now.Sub(at) < seenTTL {
		return false
	}
	// Opportunistic sweep to keep the fallback map bounded.
	for k, at := range seenViews {
		if now.Sub(at) >= seenTTL {
			delete(seenViews, k)
		}
	}
	seenViews[key] = now
	return true
}
