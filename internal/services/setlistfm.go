// setlist.fm implementation of [ConcertService]
//
// API reference: https://api.setlist.fm/docs/1.0/index.html
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/concert-time-machine/ctm/internal/shared"
)

const setlistFMBaseURL = "https://api.setlist.fm/rest/1.0"

const setlistFMTimeout = 15 * time.Second

// artistSearchOptions collects optional behavior for SearchArtists.
type artistSearchOptions struct {
	concertsOnly bool
}

// ArtistSearchOption configures an artist search.
type ArtistSearchOption func(*artistSearchOptions)

// WithConcertsOnly filters search results to artists with at least one known
// concert. Costs one setlist lookup per candidate.
func WithConcertsOnly() ArtistSearchOption {
	return func(o *artistSearchOptions) { o.concertsOnly = true }
}

// SetlistFMService implements the ConcertService interface for the setlist.fm API.
type SetlistFMService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewSetlistFMService creates a new setlist.fm service with the given API key.
func NewSetlistFMService(apiKey string) (*SetlistFMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: setlist.fm API key", shared.ErrMissingConfig)
	}

	return &SetlistFMService{
		apiKey:     apiKey,
		baseURL:    setlistFMBaseURL,
		httpClient: &http.Client{Timeout: setlistFMTimeout},
		logger:     shared.NewLogger(nil),
	}, nil
}

func (s *SetlistFMService) Name() string {
	return "setlist.fm"
}

// doRequest performs an authenticated GET request against the setlist.fm API.
func (s *SetlistFMService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: set credentials.setlistfm.api_key in your config; get a key at https://api.setlist.fm/docs/1.0/index.html", shared.ErrInvalidAPIKey)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrRemoteAPI, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchArtists searches artists by name, sorted by relevance. A 403 from the
// upstream is reported as a credential problem with guidance; other failures
// propagate as remote API errors.
func (s *SetlistFMService) SearchArtists(ctx context.Context, query string, opts ...ArtistSearchOption) ([]Artist, error) {
	var options artistSearchOptions
	for _, opt := range opts {
		opt(&options)
	}

	endpoint := fmt.Sprintf("/search/artists?artistName=%s&p=1&sort=relevance", url.QueryEscape(query))

	var response struct {
		Artist []Artist `json:"artist"`
		Total  int      `json:"total"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	if !options.concertsOnly {
		return response.Artist, nil
	}

	// One setlist lookup per candidate to drop artists with no concert
	// history. Sequential on purpose: the upstream rate-limits aggressively.
	var artists []Artist
	for _, artist := range response.Artist {
		if page := s.ArtistSetlists(ctx, artist.MBID, 1); page.Total > 0 {
			artists = append(artists, artist)
		}
	}

	return artists, nil
}

// ArtistSetlists fetches one page of an artist's concert history. Failures
// degrade to an empty page so browsing never blocks on a flaky upstream.
func (s *SetlistFMService) ArtistSetlists(ctx context.Context, artistMBID string, page int) *SetlistPage {
	if page <= 0 {
		page = 1
	}

	endpoint := fmt.Sprintf("/search/setlists?artistMbid=%s&p=%d", url.QueryEscape(artistMBID), page)

	var response struct {
		Setlist []Concert `json:"setlist"`
		Total   int       `json:"total"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		s.logger.Error("failed to fetch setlists", "artist", artistMBID, "page", page, "error", err)
		return &SetlistPage{}
	}

	return &SetlistPage{Concerts: response.Setlist, Total: response.Total}
}

// SetlistByID fetches a single concert by setlist ID, returning nil on failure.
func (s *SetlistFMService) SetlistByID(ctx context.Context, setlistID string) *Concert {
	endpoint := fmt.Sprintf("/setlist/%s", url.PathEscape(setlistID))

	var concert Concert
	if err := s.doRequest(ctx, endpoint, &concert); err != nil {
		s.logger.Error("failed to fetch setlist", "id", setlistID, "error", err)
		return nil
	}

	return &concert
}
