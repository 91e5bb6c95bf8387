// Package pipeline runs the full ETL: read both datasets, derive the five
// tables, write them out. Stages run in order and any failure aborts the
// run; there is no retry or checkpoint layer.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/troyjc/data-lake-project/internal/config"
	"github.com/troyjc/data-lake-project/internal/reader"
	"github.com/troyjc/data-lake-project/internal/transform"
	"github.com/troyjc/data-lake-project/internal/writer"
)

// statsFile is where the run summary lands, next to the binary.
const statsFile = "etl_stats.json"

// Store is the object-storage surface the pipeline needs. *storage.Client
// satisfies it; tests use in-memory fakes.
type Store interface {
	ListJSONKeys(ctx context.Context, bucket, prefix string) ([]string, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, bucket, key string, body io.Reader) error
}

// Stats summarizes a completed run.
type Stats struct {
	TotalExecutionTime string `json:"total_execution_time"`
	SongRecords        int    `json:"song_records"`
	LogRecords         int    `json:"log_records"`
	SongsRows          int    `json:"songs_rows"`
	ArtistsRows        int    `json:"artists_rows"`
	UsersRows          int    `json:"users_rows"`
	TimeRows           int    `json:"time_rows"`
	SongplaysRows      int    `json:"songplays_rows"`
	SongplaysMatched   int    `json:"songplays_matched"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	store Store
	cfg   *config.Config
}

// New builds a Pipeline.
func New(store Store, cfg *config.Config) *Pipeline {
	return &Pipeline{store: store, cfg: cfg}
}

// Run executes the whole job and returns the run summary. The summary is
// also written to etl_stats.json; a failure to write it is only a warning.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	w, err := writer.New(p.store, p.cfg.OutputData)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	log.Println("processing song data...")
	songs, err := reader.Songs(ctx, p.store, p.cfg.InputData, p.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to read song data: %w", err)
	}
	stats.SongRecords = len(songs)

	songRows := transform.Songs(songs)
	stats.SongsRows = len(songRows)
	if err := w.Songs(ctx, songRows); err != nil {
		return nil, err
	}

	artistRows := transform.Artists(songs)
	stats.ArtistsRows = len(artistRows)
	if err := w.Artists(ctx, artistRows); err != nil {
		return nil, err
	}

	log.Println("processing log data...")
	logs, err := reader.Logs(ctx, p.store, p.cfg.InputData, p.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to read log data: %w", err)
	}
	stats.LogRecords = len(logs)

	userRows := transform.Users(logs)
	stats.UsersRows = len(userRows)
	if err := w.Users(ctx, userRows); err != nil {
		return nil, err
	}

	timeRows := transform.Time(logs)
	stats.TimeRows = len(timeRows)
	if err := w.Time(ctx, timeRows); err != nil {
		return nil, err
	}

	songplayRows := transform.Songplays(logs, songs)
	stats.SongplaysRows = len(songplayRows)
	for _, r := range songplayRows {
		if r.SongID != nil {
			stats.SongplaysMatched++
		}
	}
	if err := w.Songplays(ctx, songplayRows); err != nil {
		return nil, err
	}

	stats.TotalExecutionTime = time.Since(start).String()
	log.Printf("run complete in %s: %d songs, %d artists, %d users, %d time rows, %d songplays (%d matched)",
		stats.TotalExecutionTime, stats.SongsRows, stats.ArtistsRows,
		stats.UsersRows, stats.TimeRows, stats.SongplaysRows, stats.SongplaysMatched)

	p.writeStats(stats)
	return stats, nil
}

func (p *Pipeline) writeStats(stats *Stats) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		log.Printf("warning: failed to serialize stats: %v", err)
		return
	}
	if err := os.WriteFile(statsFile, data, 0644); err != nil {
		log.Printf("warning: failed to write %s: %v", statsFile, err)
		return
	}
	log.Printf("wrote run stats to %s", statsFile)
}
