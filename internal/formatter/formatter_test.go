package formatter

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/tasks"
)

func sampleExport() *SetlistExport {
	concert := &services.Concert{
		ID:        "63de4613",
		EventDate: "12-07-1986",
		Info:      "Magic Tour",
		Artist:    services.Artist{MBID: "0383dadf", Name: "Queen"},
		Venue: services.Venue{
			Name: "Wembley Stadium",
			City: services.City{Name: "London", Country: services.Country{Code: "GB"}},
		},
		Sets: services.Sets{Set: []services.Set{
			{Songs: []services.Song{
				{Name: "One Vision"},
				{Name: "Tutti Frutti", Cover: &services.Cover{Name: "Little Richard"}},
			}},
			{Encore: 1, Songs: []services.Song{{Name: "We Are the Champions"}}},
		}},
	}

	resolution := &tasks.SetlistResolution{
		ConcertID: "63de4613",
		Resolutions: []tasks.SongResolution{
			{Track: &services.StreamingTrack{
				Name:       "One Vision",
				URI:        "spotify:track:ov",
				DurationMS: 180_000,
				Album:      services.Album{Name: "A Kind of Magic"},
			}},
			{},
			{Track: &services.StreamingTrack{
				Name:       "We Are the Champions",
				URI:        "spotify:track:watc",
				DurationMS: 240_000,
			}},
		},
		ResolvedCount: 2,
		FailedCount:   1,
		TotalSongs:    3,
	}

	return &SetlistExport{Concert: concert, Resolution: resolution}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Set,Position,Title,Artist,Album,Duration,URI,Matched") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Set 1,1,One Vision,Queen,A Kind of Magic,3:00,spotify:track:ov,true") {
			t.Errorf("CSV missing resolved row, got: %s", output)
		}
		if !strings.Contains(output, "Set 1,2,Tutti Frutti,Little Richard,,,,false") {
			t.Errorf("CSV missing unmatched cover row, got: %s", output)
		}
		if !strings.Contains(output, "Encore 1,3,We Are the Champions") {
			t.Errorf("CSV missing encore row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without artist image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Queen at Wembley Stadium") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(output, "**Location**: Wembley Stadium, London, GB") {
				t.Errorf("Markdown missing location")
			}
			if !strings.Contains(output, "**Matched**: 2 of 3") {
				t.Errorf("Markdown missing match summary")
			}
			if !strings.Contains(output, "## Set 1") || !strings.Contains(output, "## Encore 1") {
				t.Errorf("Markdown missing set sections")
			}
			if !strings.Contains(output, "1. Queen - One Vision [3:00]") {
				t.Errorf("Markdown missing resolved song line, got: %s", output)
			}
			if !strings.Contains(output, "2. Little Richard - Tutti Frutti\n") {
				t.Errorf("Markdown missing unmatched song line, got: %s", output)
			}
			if strings.Contains(output, "![Artist]") {
				t.Errorf("Markdown should not contain image reference")
			}
		})

		t.Run("with artist image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "artist.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Artist](artist.jpg)") {
				t.Errorf("Markdown missing image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Concert: Queen") {
			t.Errorf("text missing header")
		}
		if !strings.Contains(output, "Songs: 3") {
			t.Errorf("text missing song count")
		}
		if !strings.Contains(output, "2. Little Richard - Tutti Frutti (no match)") {
			t.Errorf("text missing unmatched marker, got: %s", output)
		}
	})

	t.Run("ExportToText Without Resolution", func(t *testing.T) {
		export := sampleExport()
		export.Resolution = nil

		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if strings.Contains(string(data), "(no match)") {
			t.Errorf("unresolved export should not flag misses")
		}
	})
}

func TestWriteExports(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "wembley")

		result, err := WriteCSVExport(sampleExport(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		if result.TracksFile != base+"_setlist.csv" {
			t.Errorf("unexpected tracks file %s", result.TracksFile)
		}
		if _, err := os.Stat(result.TracksFile); err != nil {
			t.Errorf("expected CSV file to exist: %v", err)
		}
		if _, err := os.Stat(result.MetadataFile); err != nil {
			t.Errorf("expected metadata file to exist: %v", err)
		}

		metadata, err := os.ReadFile(result.MetadataFile)
		if err != nil {
			t.Fatalf("failed to read metadata: %v", err)
		}
		if !strings.Contains(string(metadata), `"Queen"`) {
			t.Errorf("metadata missing artist, got: %s", metadata)
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteMarkdownExport(sampleExport(), dir, server.URL+"/artist.jpg")
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.ArtistImage == "" {
			t.Error("expected artist image to be downloaded")
		}
		if len(result.Files) != 2 {
			t.Errorf("expected 2 files, got %v", result.Files)
		}

		readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
		if err != nil {
			t.Fatalf("failed to read README: %v", err)
		}
		if !strings.Contains(string(readme), "![Artist](artist.jpg)") {
			t.Errorf("README missing image reference")
		}
	})

	t.Run("WriteMarkdownExport Without Image", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")

		result, err := WriteMarkdownExport(sampleExport(), dir, "")
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.ArtistImage != "" {
			t.Errorf("unexpected artist image %s", result.ArtistImage)
		}
		if len(result.Files) != 1 {
			t.Errorf("expected 1 file, got %v", result.Files)
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wembley.txt")

		written, err := WriteTextExport(sampleExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if written != path {
			t.Errorf("unexpected path %s", written)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.Contains(string(data), "Concert: Queen") {
			t.Errorf("export missing content")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("image-data"))
		}))
		defer server.Close()

		data, err := DownloadImage(server.URL)
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "image-data" {
			t.Errorf("unexpected image data %q", data)
		}
	})

	t.Run("Empty URL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		if _, err := DownloadImage(server.URL); err == nil {
			t.Error("expected error for server failure")
		}
	})
}
