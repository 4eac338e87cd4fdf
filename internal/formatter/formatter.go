// package formatter exports concert setlists and their resolved tracks to
// various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
	"github.com/concert-time-machine/ctm/internal/tasks"
)

// SetlistExport bundles a concert with its (optional) track resolution for export.
type SetlistExport struct {
	Concert    *services.Concert
	Resolution *tasks.SetlistResolution
}

// exportRow is one song flattened for tabular output.
type exportRow struct {
	set      string
	position int
	title    string
	artist   string
	album    string
	duration string
	uri      string
	matched  bool
}

// setLabel names a set the way concert listings do.
func setLabel(set services.Set, ordinal int) string {
	if set.Name != "" {
		return set.Name
	}
	if set.Encore > 0 {
		return fmt.Sprintf("Encore %d", set.Encore)
	}
	return fmt.Sprintf("Set %d", ordinal)
}

// rows flattens the export into setlist order, attaching resolved tracks when
// a resolution is present.
func rows(export *SetlistExport) []exportRow {
	var out []exportRow

	index := 0
	ordinal := 0
	for _, set := range export.Concert.Sets.Set {
		if set.Encore == 0 {
			ordinal++
		}
		label := setLabel(set, ordinal)

		for _, song := range set.Songs {
			row := exportRow{
				set:      label,
				position: index + 1,
				title:    song.Name,
				artist:   export.Concert.Artist.Name,
			}
			if song.Cover != nil && song.Cover.Name != "" {
				row.artist = song.Cover.Name
			}

			if export.Resolution != nil && index < len(export.Resolution.Resolutions) {
				if track := export.Resolution.Resolutions[index].Track; track != nil {
					row.album = track.Album.Name
					row.duration = shared.FormatDuration(track.DurationMS)
					row.uri = track.URI
					row.matched = true
				}
			}

			out = append(out, row)
			index++
		}
	}

	return out
}

// ExportToCSV converts a SetlistExport to CSV format with columns: Set, Position, Title, Artist, Album, Duration, URI, Matched
func ExportToCSV(export *SetlistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Set", "Position", "Title", "Artist", "Album", "Duration", "URI", "Matched"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows(export) {
		record := []string{
			row.set,
			strconv.Itoa(row.position),
			row.title,
			row.artist,
			row.album,
			row.duration,
			row.uri,
			strconv.FormatBool(row.matched),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a SetlistExport to Markdown format with optional artist image
func ExportToMarkdown(export *SetlistExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	concert := export.Concert

	buf.WriteString(fmt.Sprintf("# %s at %s\n\n", concert.Artist.Name, concert.Venue.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Artist](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Date**: %s\n", concert.EventDate))
	buf.WriteString(fmt.Sprintf("**Location**: %s\n", concert.Location()))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n", concert.TotalSongs()))
	if export.Resolution != nil {
		buf.WriteString(fmt.Sprintf("**Matched**: %d of %d\n", export.Resolution.ResolvedCount, export.Resolution.TotalSongs))
	}
	if concert.Info != "" {
		buf.WriteString(fmt.Sprintf("\n%s\n", concert.Info))
	}
	buf.WriteString("\n")

	currentSet := ""
	for _, row := range rows(export) {
		if row.set != currentSet {
			currentSet = row.set
			buf.WriteString(fmt.Sprintf("## %s\n\n", currentSet))
		}

		durationPart := ""
		if row.duration != "" {
			durationPart = fmt.Sprintf(" [%s]", row.duration)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", row.position, row.artist, row.title, durationPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a SetlistExport to plain text format
func ExportToText(export *SetlistExport) ([]byte, error) {
	var buf bytes.Buffer
	concert := export.Concert

	buf.WriteString(fmt.Sprintf("Concert: %s\n", concert.Artist.Name))
	buf.WriteString(fmt.Sprintf("Venue: %s\n", concert.Location()))
	buf.WriteString(fmt.Sprintf("Date: %s\n", concert.EventDate))
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", concert.TotalSongs()))

	for _, row := range rows(export) {
		marker := ""
		if export.Resolution != nil && !row.matched {
			marker = " (no match)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", row.position, row.artist, row.title, marker))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of the concert (without resolution data)
func ToMetadataJSON(concert *services.Concert) ([]byte, error) {
	return shared.MarshalJSON(concert, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a setlist to CSV format with accompanying metadata JSON file.
//
// Defaults to the setlist ID as the base filename & creates {base}_setlist.csv and {base}_metadata.json
func WriteCSVExport(export *SetlistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Concert.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_setlist.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Concert)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory   string
	Files       []string
	ArtistImage string
}

// WriteMarkdownExport exports a setlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the setlist ID.
// The imageURL parameter is optional - if provided, attempts to download the artist image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/artist.jpg
func WriteMarkdownExport(export *SetlistExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Concert.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var artistImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download artist image: %v\n", err)
		} else {
			artistImageFilename = "artist.jpg"
			artistImagePath := fmt.Sprintf("%s/%s", outputDir, artistImageFilename)
			if err := os.WriteFile(artistImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save artist image: %v\n", err)
				artistImageFilename = ""
			} else {
				result.ArtistImage = artistImagePath
				result.Files = append(result.Files, artistImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, artistImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a setlist to plain text format.
//
// Defaults to {setlistID}_setlist.txt as the filename.
func WriteTextExport(export *SetlistExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_setlist.txt", export.Concert.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
