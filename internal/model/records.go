// Package model defines the input records read from the sparkify datasets
// and the output table rows written to the data lake.
package model

// SongRecord is one entry of the song dataset: a single JSON object per file
// under song_data/, describing a song and its artist.
type SongRecord struct {
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	ArtistID        string   `json:"artist_id"`
	ArtistName      string   `json:"artist_name"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	Year            int32    `json:"year"`
	Duration        float64  `json:"duration"`
}

// LogRecord is one user-activity event from the newline-delimited JSON files
// under log_data/. Only events with Page == PageNextSong represent song
// plays; other pages (Home, Login, ...) carry partial fields.
type LogRecord struct {
	UserID        string  `json:"userId"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Gender        string  `json:"gender"`
	Level         string  `json:"level"`
	Song          string  `json:"song"`
	Artist        string  `json:"artist"`
	Length        float64 `json:"length"`
	TS            int64   `json:"ts"`
	SessionID     int64   `json:"sessionId"`
	Location      string  `json:"location"`
	UserAgent     string  `json:"userAgent"`
	Page          string  `json:"page"`
	Auth          string  `json:"auth"`
	Method        string  `json:"method"`
	Status        int     `json:"status"`
	ItemInSession int     `json:"itemInSession"`
	Registration  float64 `json:"registration"`
}

// PageNextSong is the page value marking an actual song play.
const PageNextSong = "NextSong"
