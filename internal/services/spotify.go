// Spotify API implementation of [StreamingService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/concert-time-machine/ctm/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

const spotifyTimeout = 15 * time.Second

// SpotifyService implements the StreamingService interface for Spotify API
// interactions. Catalog operations use an app token from the client
// credentials flow; playback operations require a user token.
type SpotifyService struct {
	auth       *SpotifyAuth
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service on top of an auth client.
func NewSpotifyService(auth *SpotifyAuth) *SpotifyService {
	return &SpotifyService{
		auth:       auth,
		baseURL:    spotifyBaseURL,
		httpClient: &http.Client{Timeout: spotifyTimeout},
		logger:     shared.NewLogger(nil),
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated HTTP request to the Spotify API.
// A 204 response leaves result untouched.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint, token string, body, result any) error {
	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrRemoteAPI, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// userToken fetches a valid user token or logs why playback is unavailable.
func (s *SpotifyService) userToken(ctx context.Context) (string, bool) {
	token, ok := s.auth.UserToken(ctx)
	if !ok {
		s.logger.Error("no user access token available; run the login flow first")
	}
	return token, ok
}

// SearchTrack searches for a track by artist and song title using field
// filters, returning the best match. Returns nil when nothing matches or the
// search fails; resolution is best-effort by design.
func (s *SpotifyService) SearchTrack(ctx context.Context, artist, title string) *StreamingTrack {
	token, err := s.auth.ClientToken(ctx)
	if err != nil {
		s.logger.Error("failed to authenticate for search", "error", err)
		return nil
	}

	query := url.Values{
		"q":     {fmt.Sprintf("track:%s artist:%s", title, artist)},
		"type":  {"track"},
		"limit": {"1"},
	}
	endpoint := "/search?" + query.Encode()

	var response struct {
		Tracks struct {
			Items []StreamingTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, "GET", endpoint, token, nil, &response); err != nil {
		s.logger.Error("failed to search track", "artist", artist, "title", title, "error", err)
		return nil
	}

	if len(response.Tracks.Items) == 0 {
		return nil
	}
	return &response.Tracks.Items[0]
}

// ArtistInfo looks up artist metadata by name, returning the best match or
// nil when the lookup fails.
func (s *SpotifyService) ArtistInfo(ctx context.Context, name string) *StreamingArtist {
	token, err := s.auth.ClientToken(ctx)
	if err != nil {
		s.logger.Error("failed to authenticate for search", "error", err)
		return nil
	}

	query := url.Values{
		"q":     {name},
		"type":  {"artist"},
		"limit": {"1"},
	}
	endpoint := "/search?" + query.Encode()

	var response struct {
		Artists struct {
			Items []StreamingArtist `json:"items"`
		} `json:"artists"`
	}
	if err := s.doRequest(ctx, "GET", endpoint, token, nil, &response); err != nil {
		s.logger.Error("failed to search artist", "name", name, "error", err)
		return nil
	}

	if len(response.Artists.Items) == 0 {
		return nil
	}
	return &response.Artists.Items[0]
}

// Devices lists the user's available playback devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]Device, error) {
	token, ok := s.userToken(ctx)
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}

	var response struct {
		Devices []Device `json:"devices"`
	}
	if err := s.doRequest(ctx, "GET", "/me/player/devices", token, nil, &response); err != nil {
		return nil, err
	}

	return response.Devices, nil
}

// PlayerState returns the user's current playback state. A 204 from the
// upstream means no active session; that is reported as (nil, nil).
func (s *SpotifyService) PlayerState(ctx context.Context) (*PlayerState, error) {
	token, ok := s.userToken(ctx)
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}

	var state PlayerState
	if err := s.doRequest(ctx, "GET", "/me/player", token, nil, &state); err != nil {
		return nil, err
	}

	if state.Item == nil && state.Device.ID == "" {
		return nil, nil
	}
	return &state, nil
}

// PlayTrack starts playback of a track URI on the user's active device,
// falling back to the first available device when none is active. Failures
// are logged and reported as false.
func (s *SpotifyService) PlayTrack(ctx context.Context, uri string) bool {
	devices, err := s.Devices(ctx)
	if err != nil {
		s.logger.Error("failed to get devices", "error", err)
		return false
	}

	var target *Device
	for i := range devices {
		if devices[i].IsActive {
			target = &devices[i]
			break
		}
	}
	if target == nil && len(devices) > 0 {
		target = &devices[0]
	}
	if target == nil {
		s.logger.Error("no playback device found", "error", shared.ErrNoDevice)
		return false
	}

	return s.PlayOn(ctx, target.ID, uri)
}

// PlayOn starts playback of a track URI on a specific device.
func (s *SpotifyService) PlayOn(ctx context.Context, deviceID, uri string) bool {
	token, ok := s.userToken(ctx)
	if !ok {
		return false
	}

	endpoint := "/me/player/play?device_id=" + url.QueryEscape(deviceID)
	body := map[string]any{"uris": []string{uri}}

	if err := s.doRequest(ctx, "PUT", endpoint, token, body, nil); err != nil {
		s.logger.Error("failed to play track", "uri", uri, "device", deviceID, "error", err)
		return false
	}

	return true
}

// PausePlayback pauses the user's playback. Failures are logged and reported as false.
func (s *SpotifyService) PausePlayback(ctx context.Context) bool {
	token, ok := s.userToken(ctx)
	if !ok {
		return false
	}

	if err := s.doRequest(ctx, "PUT", "/me/player/pause", token, nil, nil); err != nil {
		s.logger.Error("failed to pause playback", "error", err)
		return false
	}

	return true
}

// ResumePlayback resumes the user's playback. Failures are logged and reported as false.
func (s *SpotifyService) ResumePlayback(ctx context.Context) bool {
	token, ok := s.userToken(ctx)
	if !ok {
		return false
	}

	if err := s.doRequest(ctx, "PUT", "/me/player/play", token, nil, nil); err != nil {
		s.logger.Error("failed to resume playback", "error", err)
		return false
	}

	return true
}

// TransferPlayback moves the playback session to the given device.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string, play bool) bool {
	token, ok := s.userToken(ctx)
	if !ok {
		return false
	}

	body := map[string]any{"device_ids": []string{deviceID}, "play": play}
	if err := s.doRequest(ctx, "PUT", "/me/player", token, body, nil); err != nil {
		s.logger.Error("failed to transfer playback", "device", deviceID, "error", err)
		return false
	}

	return true
}

// SeekPosition seeks within the currently playing track.
func (s *SpotifyService) SeekPosition(ctx context.Context, positionMS int) bool {
	token, ok := s.userToken(ctx)
	if !ok {
		return false
	}

	endpoint := fmt.Sprintf("/me/player/seek?position_ms=%d", positionMS)
	if err := s.doRequest(ctx, "PUT", endpoint, token, nil, nil); err != nil {
		s.logger.Error("failed to seek", "position_ms", positionMS, "error", err)
		return false
	}

	return true
}

// SetVolume sets the playback volume as a percentage in [0, 100].
func (s *SpotifyService) SetVolume(ctx context.Context, percent int) bool {
	token, ok := s.userToken(ctx)
	if !ok {
		return false
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d", percent)
	if err := s.doRequest(ctx, "PUT", endpoint, token, nil, nil); err != nil {
		s.logger.Error("failed to set volume", "percent", percent, "error", err)
		return false
	}

	return true
}
