package tracker

import (
	"sync"
	"testing"
)

func TestTracker_Counters(t *testing.T) {
	tr := New()

	tr.TrackCacheHit("repo")
	tr.TrackCacheHit("repo")
	tr.TrackCacheMiss("repo")
	tr.TrackAPISuccess("elevenlabs")
	tr.TrackAPIFailure("elevenlabs")

	snap := tr.Snapshot()
	if snap["repo"].CacheHits != 2 || snap["repo"].CacheMisses != 1 {
		t.Errorf("repo stats = %+v", snap["repo"])
	}
	if snap["elevenlabs"].APISuccess != 1 || snap["elevenlabs"].APIFailures != 1 {
		t.Errorf("elevenlabs stats = %+v", snap["elevenlabs"])
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackAPISuccess("p")
			tr.TrackCacheHit("p")
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap["p"].APISuccess != 50 || snap["p"].CacheHits != 50 {
		t.Errorf("stats = %+v, want 50/50", snap["p"])
	}
}
