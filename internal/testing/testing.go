// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/concert-time-machine/ctm/internal/services"
)

// MockConcertService is a test double for [services.ConcertService]
type MockConcertService struct {
	Artists  []services.Artist
	Pages    map[string]*services.SetlistPage
	Concerts map[string]*services.Concert
}

func (m *MockConcertService) SearchArtists(ctx context.Context, name string, opts ...services.ArtistSearchOption) ([]services.Artist, error) {
	return m.Artists, nil
}

func (m *MockConcertService) ArtistSetlists(ctx context.Context, mbid string, page int) *services.SetlistPage {
	if p, ok := m.Pages[mbid]; ok {
		return p
	}
	return &services.SetlistPage{}
}

func (m *MockConcertService) SetlistByID(ctx context.Context, setlistID string) *services.Concert {
	return m.Concerts[setlistID]
}

func (m *MockConcertService) Name() string { return "mock" }

// MockStreamingService is a test double for [services.StreamingService]
type MockStreamingService struct {
	Tracks  map[string]*services.StreamingTrack
	Devs    []services.Device
	State   *services.PlayerState
	Played  []string
	Success bool
}

func (m *MockStreamingService) SearchTrack(ctx context.Context, artist, title string) *services.StreamingTrack {
	return m.Tracks[artist+"|"+title]
}

func (m *MockStreamingService) ArtistInfo(ctx context.Context, artistID string) *services.StreamingArtist {
	return nil
}

func (m *MockStreamingService) Devices(ctx context.Context) ([]services.Device, error) {
	return m.Devs, nil
}

func (m *MockStreamingService) PlayerState(ctx context.Context) (*services.PlayerState, error) {
	return m.State, nil
}

func (m *MockStreamingService) PlayTrack(ctx context.Context, uri string) bool {
	m.Played = append(m.Played, uri)
	return m.Success
}

func (m *MockStreamingService) PlayOn(ctx context.Context, deviceID, uri string) bool {
	m.Played = append(m.Played, uri)
	return m.Success
}

func (m *MockStreamingService) PausePlayback(ctx context.Context) bool  { return m.Success }
func (m *MockStreamingService) ResumePlayback(ctx context.Context) bool { return m.Success }
func (m *MockStreamingService) Name() string                            { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
