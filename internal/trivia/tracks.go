package trivia

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fastrand"
)

// MemoryLibrary is a TrackSource over a fixed list of tracks.
type MemoryLibrary struct {
	mu     sync.RWMutex
	tracks []Track
}

func NewMemoryLibrary(tracks []Track) *MemoryLibrary {
	lib := &MemoryLibrary{}
	lib.Add(tracks...)
	return lib
}

func (l *MemoryLibrary) Add(tracks ...Track) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks = append(l.tracks, tracks...)
	sort.SliceStable(l.tracks, func(i, j int) bool { return l.tracks[i].ID < l.tracks[j].ID })
}

func (l *MemoryLibrary) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

func (l *MemoryLibrary) Pick(_ context.Context, req PickRequest) ([]Track, error) {
	l.mu.RLock()
	candidates := make([]Track, 0, len(l.tracks))
	for _, track := range l.tracks {
		if req.Playlist != "" && !strings.EqualFold(track.Playlist, req.Playlist) {
			continue
		}
		if _, skip := req.Exclude[track.ID]; skip {
			continue
		}
		candidates = append(candidates, track)
	}
	l.mu.RUnlock()
	return PickTracks(candidates, req), nil
}

// PickTracks shuffles candidates and returns up to req.Count of them. A
// non-zero seed gives the same order for the same candidates.
func PickTracks(candidates []Track, req PickRequest) []Track {
	shuffled := append([]Track(nil), candidates...)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if req.Seed != 0 {
		rng := rand.New(rand.NewPCG(uint64(req.Seed), uint64(req.Seed)>>1))
		rng.Shuffle(len(shuffled), swap)
	} else {
		for i := len(shuffled) - 1; i > 0; i-- {
			swap(i, int(fastrand.Uint32n(uint32(i+1))))
		}
	}
	if req.Count > 0 && len(shuffled) > req.Count {
		shuffled = shuffled[:req.Count]
	}
	return shuffled
}

// DailySeed maps a calendar day (UTC) to a track draw seed.
func DailySeed(day time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(day.UTC().Format(time.DateOnly)))
	seed := int64(h.Sum64() &^ (1 << 63))
	if seed == 0 {
		seed = 1
	}
	return seed
}
