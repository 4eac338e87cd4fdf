package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/concert-time-machine/ctm/internal/models"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// TrackRepository implements models.Repository[*models.CachedTrack].
//
// Resolved tracks are keyed by normalized song key so repeat performances of
// the same song across concerts reuse one row.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] with a generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.Sequence = sequence

	if track.TrackID == "" {
		track.TrackID = shared.GenerateID()
	}

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if track.Created.IsZero() {
		track.Created = now
	}
	track.Updated = now

	query := `
		INSERT INTO tracks (id, sequence, song_key, spotify_id, name, artist, album, uri, duration_ms, preview_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.TrackID,
		track.Sequence,
		track.SongKey,
		track.SpotifyID,
		track.Name,
		track.Artist,
		track.Album,
		track.URI,
		track.DurationMS,
		track.PreviewURL,
		track.Created,
		track.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, song_key, spotify_id, name, artist, album, uri, duration_ms, preview_url, created_at, updated_at
		FROM tracks
		WHERE id = ?
	`

	return scanTrack(r.db.QueryRow(query, id))
}

// GetBySongKey retrieves a track by its normalized song key
func (r *TrackRepository) GetBySongKey(songKey string) (*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, song_key, spotify_id, name, artist, album, uri, duration_ms, preview_url, created_at, updated_at
		FROM tracks
		WHERE song_key = ?
	`

	return scanTrack(r.db.QueryRow(query, songKey))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.Updated = now

	query := `
		UPDATE tracks
		SET spotify_id = ?, name = ?, artist = ?, album = ?, uri = ?, duration_ms = ?, preview_url = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		track.SpotifyID,
		track.Name,
		track.Artist,
		track.Album,
		track.URI,
		track.DurationMS,
		track.PreviewURL,
		now,
		track.TrackID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found: %s", track.TrackID)
	}

	return nil
}

// Delete removes a track by ID
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found: %s", id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria in insertion order
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, song_key, spotify_id, name, artist, album, uri, duration_ms, preview_url, created_at, updated_at
		FROM tracks
		WHERE 1 = 1
	`

	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if spotifyID, ok := criteria["spotify_id"].(string); ok && spotifyID != "" {
		query += " AND spotify_id = ?"
		args = append(args, spotifyID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := scanTrackRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Clear removes every cached track and resets the sequence counter
func (r *TrackRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM tracks"); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	if _, err := r.db.Exec("UPDATE tracks_sequence SET value = 0 WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to reset track sequence: %w", err)
	}
	return nil
}

// scanTrack scans a single [sql.Row] into a [models.CachedTrack]
func scanTrack(row *sql.Row) (*models.CachedTrack, error) {
	var (
		track   models.CachedTrack
		album   sql.NullString
		preview sql.NullString
	)

	err := row.Scan(
		&track.TrackID,
		&track.Sequence,
		&track.SongKey,
		&track.SpotifyID,
		&track.Name,
		&track.Artist,
		&album,
		&track.URI,
		&track.DurationMS,
		&preview,
		&track.Created,
		&track.Updated,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track.Album = album.String
	track.PreviewURL = preview.String
	return &track, nil
}

// scanTrackRow scans a row from [sql.Rows] into a [models.CachedTrack]
func scanTrackRow(rows *sql.Rows) (*models.CachedTrack, error) {
	var (
		track   models.CachedTrack
		album   sql.NullString
		preview sql.NullString
	)

	err := rows.Scan(
		&track.TrackID,
		&track.Sequence,
		&track.SongKey,
		&track.SpotifyID,
		&track.Name,
		&track.Artist,
		&album,
		&track.URI,
		&track.DurationMS,
		&preview,
		&track.Created,
		&track.Updated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track.Album = album.String
	track.PreviewURL = preview.String
	return &track, nil
}
