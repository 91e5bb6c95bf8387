// Package writer serializes the derived tables to parquet files in object
// storage. Each partition becomes one snappy-compressed file, staged
// through a local temp file before upload.
package writer

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"github.com/troyjc/data-lake-project/internal/config"
	"github.com/troyjc/data-lake-project/internal/model"
)

// parallelNumber is the parquet writer's internal goroutine count.
const parallelNumber = 4

// Uploader is the subset of the storage client the writer needs.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader) error
}

// Writer writes tables under an output location.
type Writer struct {
	up      Uploader
	out     config.S3Location
	tempDir string
}

// New creates a Writer staging files in a fresh temp directory.
func New(up Uploader, out config.S3Location) (*Writer, error) {
	tempDir, err := os.MkdirTemp("", "parquet-stage-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &Writer{up: up, out: out, tempDir: tempDir}, nil
}

// Close removes the staging directory.
func (w *Writer) Close() {
	if err := os.RemoveAll(w.tempDir); err != nil {
		log.Printf("warning: failed to clean up temp directory %s: %v", w.tempDir, err)
	}
}

// Songs writes the songs table partitioned by year, then artist id.
func (w *Writer) Songs(ctx context.Context, rows []model.SongRow) error {
	groups := make(map[string][]interface{})
	for _, r := range rows {
		dir := fmt.Sprintf("songs/year=%d/artist_id=%s", r.Year, r.ArtistID)
		groups[dir] = append(groups[dir], r)
	}
	return w.writeGroups(ctx, "songs", groups, new(model.SongRow))
}

// Artists writes the artists table as a single unpartitioned file set.
func (w *Writer) Artists(ctx context.Context, rows []model.ArtistRow) error {
	group := make([]interface{}, len(rows))
	for i, r := range rows {
		group[i] = r
	}
	return w.writeGroups(ctx, "artists", map[string][]interface{}{"artists": group}, new(model.ArtistRow))
}

// Users writes the users table as a single unpartitioned file set.
func (w *Writer) Users(ctx context.Context, rows []model.UserRow) error {
	group := make([]interface{}, len(rows))
	for i, r := range rows {
		group[i] = r
	}
	return w.writeGroups(ctx, "users", map[string][]interface{}{"users": group}, new(model.UserRow))
}

// Time writes the time table partitioned by year, then month.
func (w *Writer) Time(ctx context.Context, rows []model.TimeRow) error {
	groups := make(map[string][]interface{})
	for _, r := range rows {
		dir := fmt.Sprintf("time/year=%d/month=%d", r.Year, r.Month)
		groups[dir] = append(groups[dir], r)
	}
	return w.writeGroups(ctx, "time", groups, new(model.TimeRow))
}

// Songplays writes the songplays table partitioned by year, then month.
func (w *Writer) Songplays(ctx context.Context, rows []model.SongplayRow) error {
	groups := make(map[string][]interface{})
	for _, r := range rows {
		dir := fmt.Sprintf("songplays/year=%d/month=%d", r.Year, r.Month)
		groups[dir] = append(groups[dir], r)
	}
	return w.writeGroups(ctx, "songplays", groups, new(model.SongplayRow))
}

// writeGroups writes one parquet file per partition directory and uploads
// it under the output prefix. schema is a pointer to the row type, as the
// parquet writer expects.
func (w *Writer) writeGroups(ctx context.Context, table string, groups map[string][]interface{}, schema interface{}) error {
	log.Printf("writing %s table: %d partitions", table, len(groups))
	for dir, rows := range groups {
		key := w.out.Join(dir, fmt.Sprintf("part-%s.parquet", uuid.NewString()))
		if err := w.writeOne(ctx, key, rows, schema); err != nil {
			return fmt.Errorf("failed to write %s partition %s: %w", table, dir, err)
		}
	}
	return nil
}

// writeOne stages rows to a local parquet file and uploads it to key.
func (w *Writer) writeOne(ctx context.Context, key string, rows []interface{}, schema interface{}) error {
	localName := filepath.Join(w.tempDir, filepath.Base(key))

	fw, err := local.NewLocalFileWriter(localName)
	if err != nil {
		return fmt.Errorf("failed to create local file writer: %w", err)
	}

	pw, err := pqwriter.NewParquetWriter(fw, schema, parallelNumber)
	if err != nil {
		fw.Close()
		os.Remove(localName)
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			fw.Close()
			os.Remove(localName)
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(localName)
		return fmt.Errorf("error in WriteStop: %w", err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(localName)
		return fmt.Errorf("error closing file writer: %w", err)
	}
	defer os.Remove(localName)

	file, err := os.Open(localName)
	if err != nil {
		return fmt.Errorf("failed to open staged file: %w", err)
	}
	defer file.Close()

	if err := w.up.Upload(ctx, w.out.Bucket, key, file); err != nil {
		return err
	}
	return nil
}
