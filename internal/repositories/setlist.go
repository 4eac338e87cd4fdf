package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/concert-time-machine/ctm/internal/models"
)

// SetlistRepository implements models.Repository[*models.CachedSetlist].
//
// Each row snapshots one concert fetched from the concert archive, with the
// full concert JSON stored in the payload column for offline replay.
type SetlistRepository struct {
	db *sql.DB
}

// NewSetlistRepository creates a new SetlistRepository with the given database connection
func NewSetlistRepository(db *sql.DB) *SetlistRepository {
	return &SetlistRepository{db: db}
}

// Create inserts a new [models.CachedSetlist] into the database
func (r *SetlistRepository) Create(setlist *models.CachedSetlist) error {
	if err := setlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if setlist.Created.IsZero() {
		setlist.Created = now
	}
	setlist.Updated = now

	query := `
		INSERT INTO setlists (id, version_id, artist_mbid, artist_name, event_date, venue_name, city_name, country_code, song_count, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		setlist.SetlistID,
		setlist.VersionID,
		setlist.ArtistMBID,
		setlist.ArtistName,
		setlist.EventDate,
		setlist.VenueName,
		setlist.CityName,
		setlist.CountryCode,
		setlist.SongCount,
		setlist.Payload,
		setlist.Created,
		setlist.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert setlist: %w", err)
	}

	return nil
}

// Get retrieves a setlist by its setlist.fm ID
func (r *SetlistRepository) Get(id string) (*models.CachedSetlist, error) {
	query := `
		SELECT id, version_id, artist_mbid, artist_name, event_date, venue_name, city_name, country_code, song_count, payload, created_at, updated_at
		FROM setlists
		WHERE id = ?
	`

	return scanSetlist(r.db.QueryRow(query, id))
}

// Update modifies an existing setlist, replacing the stored snapshot
func (r *SetlistRepository) Update(setlist *models.CachedSetlist) error {
	if err := setlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	setlist.Updated = now

	query := `
		UPDATE setlists
		SET version_id = ?, artist_name = ?, event_date = ?, venue_name = ?, city_name = ?, country_code = ?, song_count = ?, payload = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		setlist.VersionID,
		setlist.ArtistName,
		setlist.EventDate,
		setlist.VenueName,
		setlist.CityName,
		setlist.CountryCode,
		setlist.SongCount,
		setlist.Payload,
		now,
		setlist.SetlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to update setlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("setlist not found: %s", setlist.SetlistID)
	}

	return nil
}

// Delete removes a setlist by ID
func (r *SetlistRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM setlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete setlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("setlist not found: %s", id)
	}

	return nil
}

// List retrieves all setlists matching the given criteria, newest event first
func (r *SetlistRepository) List(criteria map[string]any) ([]*models.CachedSetlist, error) {
	query := `
		SELECT id, version_id, artist_mbid, artist_name, event_date, venue_name, city_name, country_code, song_count, payload, created_at, updated_at
		FROM setlists
		WHERE 1 = 1
	`

	args := []any{}

	if mbid, ok := criteria["artist_mbid"].(string); ok && mbid != "" {
		query += " AND artist_mbid = ?"
		args = append(args, mbid)
	}

	if name, ok := criteria["artist_name"].(string); ok && name != "" {
		query += " AND artist_name = ?"
		args = append(args, name)
	}

	query += " ORDER BY event_date DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query setlists: %w", err)
	}
	defer rows.Close()

	var setlists []*models.CachedSetlist
	for rows.Next() {
		setlist, err := scanSetlistRow(rows)
		if err != nil {
			return nil, err
		}
		setlists = append(setlists, setlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return setlists, nil
}

// Save inserts the setlist, or replaces the stored snapshot when a row with
// the same ID already exists. setlist.fm edits bump version_id, so replaying
// a fetch keeps the cache current.
func (r *SetlistRepository) Save(setlist *models.CachedSetlist) error {
	err := r.Create(setlist)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint") {
		return r.Update(setlist)
	}
	return err
}

// Clear removes every cached setlist
func (r *SetlistRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM setlists"); err != nil {
		return fmt.Errorf("failed to clear setlists: %w", err)
	}
	return nil
}

// scanSetlist scans a single [sql.Row] into a [models.CachedSetlist]
func scanSetlist(row *sql.Row) (*models.CachedSetlist, error) {
	var (
		setlist models.CachedSetlist
		venue   sql.NullString
		city    sql.NullString
		country sql.NullString
	)

	err := row.Scan(
		&setlist.SetlistID,
		&setlist.VersionID,
		&setlist.ArtistMBID,
		&setlist.ArtistName,
		&setlist.EventDate,
		&venue,
		&city,
		&country,
		&setlist.SongCount,
		&setlist.Payload,
		&setlist.Created,
		&setlist.Updated,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("setlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan setlist: %w", err)
	}

	setlist.VenueName = venue.String
	setlist.CityName = city.String
	setlist.CountryCode = country.String
	return &setlist, nil
}

// scanSetlistRow scans a row from [sql.Rows] into a [models.CachedSetlist]
func scanSetlistRow(rows *sql.Rows) (*models.CachedSetlist, error) {
	var (
		setlist models.CachedSetlist
		venue   sql.NullString
		city    sql.NullString
		country sql.NullString
	)

	err := rows.Scan(
		&setlist.SetlistID,
		&setlist.VersionID,
		&setlist.ArtistMBID,
		&setlist.ArtistName,
		&setlist.EventDate,
		&venue,
		&city,
		&country,
		&setlist.SongCount,
		&setlist.Payload,
		&setlist.Created,
		&setlist.Updated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan setlist: %w", err)
	}

	setlist.VenueName = venue.String
	setlist.CityName = city.String
	setlist.CountryCode = country.String
	return &setlist, nil
}
