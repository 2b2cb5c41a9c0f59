// Package catalog looks up preview audio and artwork for a song in the iTunes
// Search API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"music-round/internal/textnorm"

	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultBaseURL     = "https://itunes.apple.com"
	PlaceholderArtwork = "/static/placeholder-artwork.png"
)

var ErrNotFound = errors.New("track not found in catalog")

type Track struct {
	ID          string `json:"id"`
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	PreviewURL  string `json:"preview_url"`
	ArtworkURL  string `json:"artwork_url"`
	ReleaseYear int    `json:"release_year,omitempty"`
}

// Placeholder stands in for a track the catalog could not resolve, so round
// creation can carry on with the caller's artist and title.
func Placeholder(artist, title string) Track {
	return Track{
		Artist:     artist,
		Title:      title,
		ArtworkURL: PlaceholderArtwork,
	}
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	CacheSize int
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *lru.ARCCache
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.NewARC(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("lru new instance of lru arc cache: %w", err)
		}
		client.cache = cache
	}
	return client, nil
}

type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []searchResult `json:"results"`
}

type searchResult struct {
	TrackID       int64  `json:"trackId"`
	ArtistName    string `json:"artistName"`
	TrackName     string `json:"trackName"`
	PreviewURL    string `json:"previewUrl"`
	ArtworkURL100 string `json:"artworkUrl100"`
	ReleaseDate   string `json:"releaseDate"`
}

// Lookup finds the best catalog match for artist and title. Results are
// cached by their normalized form.
func (c *Client) Lookup(ctx context.Context, artist, title string) (Track, error) {
	key := textnorm.Normalize(artist) + "|" + textnorm.Normalize(title)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached.(Track), nil
		}
	}

	query := url.Values{}
	query.Set("term", strings.TrimSpace(artist+" "+title))
	query.Set("entity", "song")
	query.Set("media", "music")
	query.Set("limit", "10")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return Track{}, fmt.Errorf("build catalog request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Track{}, fmt.Errorf("reach catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Track{}, fmt.Errorf("read catalog response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Track{}, fmt.Errorf("catalog request failed (%d)", resp.StatusCode)
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Track{}, fmt.Errorf("parse catalog response: %w", err)
	}
	result, ok := bestMatch(parsed.Results, artist, title)
	if !ok {
		return Track{}, ErrNotFound
	}

	track := Track{
		ID:          strconv.FormatInt(result.TrackID, 10),
		Artist:      result.ArtistName,
		Title:       result.TrackName,
		PreviewURL:  result.PreviewURL,
		ArtworkURL:  largerArtwork(result.ArtworkURL100),
		ReleaseYear: releaseYear(result.ReleaseDate),
	}
	if c.cache != nil {
		c.cache.Add(key, track)
	}
	return track, nil
}

// bestMatch prefers an exact artist and title match, then any result by the
// same artist. A different artist is never accepted since the round's answer
// key comes from the match.
func bestMatch(results []searchResult, artist, title string) (searchResult, bool) {
	wantArtist := textnorm.Normalize(artist)
	wantTitle := textnorm.Normalize(title)
	for _, result := range results {
		if textnorm.Normalize(result.ArtistName) == wantArtist && textnorm.Normalize(result.TrackName) == wantTitle {
			return result, true
		}
	}
	for _, result := range results {
		if textnorm.Normalize(result.ArtistName) == wantArtist {
			return result, true
		}
	}
	return searchResult{}, false
}

func largerArtwork(raw string) string {
	if raw == "" {
		return PlaceholderArtwork
	}
	return strings.Replace(raw, "100x100", "600x600", 1)
}

func releaseYear(raw string) int {
	if len(raw) < 4 {
		return 0
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil {
		return 0
	}
	return year
}
