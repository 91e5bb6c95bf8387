// Package transform derives the star-schema tables from the input record
// collections. Every function is pure: records in, rows out, input order
// determines which representative survives a dedup.
package transform

import (
	"time"

	"github.com/google/uuid"

	"github.com/troyjc/data-lake-project/internal/model"
)

// Songs projects the song catalog into the songs dimension table, one row
// per distinct song id.
func Songs(songs []model.SongRecord) []model.SongRow {
	seen := make(map[string]struct{}, len(songs))
	rows := make([]model.SongRow, 0, len(songs))
	for _, s := range songs {
		if _, ok := seen[s.SongID]; ok {
			continue
		}
		seen[s.SongID] = struct{}{}
		rows = append(rows, model.SongRow{
			SongID:   s.SongID,
			Title:    s.Title,
			ArtistID: s.ArtistID,
			Year:     s.Year,
			Duration: s.Duration,
		})
	}
	return rows
}

// Artists projects the song catalog into the artists dimension table, one
// row per distinct artist id.
func Artists(songs []model.SongRecord) []model.ArtistRow {
	seen := make(map[string]struct{}, len(songs))
	rows := make([]model.ArtistRow, 0, len(songs))
	for _, s := range songs {
		if _, ok := seen[s.ArtistID]; ok {
			continue
		}
		seen[s.ArtistID] = struct{}{}
		rows = append(rows, model.ArtistRow{
			ArtistID:  s.ArtistID,
			Name:      s.ArtistName,
			Location:  s.ArtistLocation,
			Latitude:  s.ArtistLatitude,
			Longitude: s.ArtistLongitude,
		})
	}
	return rows
}

// Users derives the users dimension table: one row per distinct user id
// across all log records, keeping the first attributes seen. No recency
// ordering is applied, so the representative is arbitrary, not most-recent.
// Events with a blank user id (logged-out sessions) are skipped.
func Users(logs []model.LogRecord) []model.UserRow {
	seen := make(map[string]struct{})
	rows := make([]model.UserRow, 0)
	for _, l := range logs {
		if l.UserID == "" {
			continue
		}
		if _, ok := seen[l.UserID]; ok {
			continue
		}
		seen[l.UserID] = struct{}{}
		rows = append(rows, model.UserRow{
			UserID:    l.UserID,
			FirstName: l.FirstName,
			LastName:  l.LastName,
			Gender:    l.Gender,
			Level:     l.Level,
		})
	}
	return rows
}

// Time derives the time dimension table from NextSong events, one row per
// distinct timestamp.
func Time(logs []model.LogRecord) []model.TimeRow {
	seen := make(map[int64]struct{})
	rows := make([]model.TimeRow, 0)
	for _, l := range logs {
		if l.Page != model.PageNextSong {
			continue
		}
		if _, ok := seen[l.TS]; ok {
			continue
		}
		seen[l.TS] = struct{}{}
		rows = append(rows, DecomposeTimestamp(l.TS))
	}
	return rows
}

// DecomposeTimestamp expands an epoch-millisecond timestamp into its
// calendar parts, in UTC. Week is the ISO week of year and weekday runs
// 1 (Sunday) through 7 (Saturday).
func DecomposeTimestamp(ms int64) model.TimeRow {
	t := time.UnixMilli(ms).UTC()
	_, week := t.ISOWeek()
	return model.TimeRow{
		StartTime: ms,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   int32(t.Weekday()) + 1,
	}
}

// catalogKey identifies a song in the catalog the way a log event describes
// it. Duration compares by exact equality, no tolerance.
type catalogKey struct {
	title    string
	artist   string
	duration float64
}

// Songplays derives the fact table: one row per NextSong event, with song
// and artist ids resolved against the catalog by exact (title, artist,
// duration) equality. Unmatched events keep null ids and are retained.
// When several catalog entries share a key, the first one read wins.
func Songplays(logs []model.LogRecord, songs []model.SongRecord) []model.SongplayRow {
	catalog := make(map[catalogKey]model.SongRecord, len(songs))
	for _, s := range songs {
		k := catalogKey{title: s.Title, artist: s.ArtistName, duration: s.Duration}
		if _, ok := catalog[k]; !ok {
			catalog[k] = s
		}
	}

	rows := make([]model.SongplayRow, 0)
	for _, l := range logs {
		if l.Page != model.PageNextSong {
			continue
		}
		row := model.SongplayRow{
			SongplayID: uuid.NewString(),
			StartTime:  l.TS,
			UserID:     l.UserID,
			Level:      l.Level,
			SessionID:  l.SessionID,
			Location:   l.Location,
			UserAgent:  l.UserAgent,
		}
		ts := time.UnixMilli(l.TS).UTC()
		row.Year = int32(ts.Year())
		row.Month = int32(ts.Month())

		if s, ok := catalog[catalogKey{title: l.Song, artist: l.Artist, duration: l.Length}]; ok {
			songID, artistID := s.SongID, s.ArtistID
			row.SongID = &songID
			row.ArtistID = &artistID
		}
		rows = append(rows, row)
	}
	return rows
}
