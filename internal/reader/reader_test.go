package reader

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/troyjc/data-lake-project/internal/config"
)

// fakeSource serves file bodies from a map of key -> content.
type fakeSource struct {
	files   map[string]string
	listErr error
	openErr map[string]error
}

func (f *fakeSource) ListJSONKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var keys []string
	for k := range f.files {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeSource) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := f.openErr[key]; err != nil {
		return nil, err
	}
	body, ok := f.files[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

const songJSON = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

func TestSongsSingleObjectPerFile(t *testing.T) {
	src := &fakeSource{files: map[string]string{
		"song_data/A/A/A/TRAAAAW128F429D538.json": songJSON,
		"song_data/A/A/B/TRAABJL12903CDCF1A.json": `{"song_id": "SOB", "artist_id": "ARB", "title": "Intro", "duration": 75.67, "year": 2003, "artist_name": "Line Renaud"}`,
	}}
	records, err := Songs(context.Background(), src, config.S3Location{Bucket: "b"}, 4)
	if err != nil {
		t.Fatalf("Songs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 song records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.SongID == "" {
			t.Errorf("record missing song id: %+v", rec)
		}
	}
}

func TestLogsNewlineDelimited(t *testing.T) {
	body := `{"userId": "26", "page": "NextSong", "song": "Harder Better Faster Stronger", "artist": "Daft Punk", "length": 223.60771, "ts": 1542242481796, "sessionId": 583, "level": "paid"}
{"userId": "26", "page": "Home", "ts": 1542242500000, "sessionId": 583, "level": "paid"}
{"userId": "80", "page": "NextSong", "song": "Greece 2000", "artist": "Three Drives", "length": 411.6371, "ts": 1542260935796, "sessionId": 774, "level": "paid"}`
	src := &fakeSource{files: map[string]string{
		"log_data/2018/11/2018-11-15-events.json": body,
	}}
	records, err := Logs(context.Background(), src, config.S3Location{Bucket: "b"}, 2)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 log records, got %d", len(records))
	}
	var plays int
	for _, rec := range records {
		if rec.Page == "NextSong" {
			plays++
		}
	}
	if plays != 2 {
		t.Errorf("expected 2 NextSong records, got %d", plays)
	}
}

func TestReadRespectsInputPrefix(t *testing.T) {
	src := &fakeSource{files: map[string]string{
		"data/song_data/A/TRA.json": songJSON,
	}}
	records, err := Songs(context.Background(), src, config.S3Location{Bucket: "b", Prefix: "data"}, 1)
	if err != nil {
		t.Fatalf("Songs: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestMalformedJSONAbortsRead(t *testing.T) {
	src := &fakeSource{files: map[string]string{
		"song_data/A/good.json": songJSON,
		"song_data/B/bad.json":  `{"song_id": "SOB", "title":`,
	}}
	_, err := Songs(context.Background(), src, config.S3Location{Bucket: "b"}, 4)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "bad.json") {
		t.Errorf("error should name the failing key, got %v", err)
	}
}

func TestOpenFailureAbortsRead(t *testing.T) {
	src := &fakeSource{
		files: map[string]string{
			"log_data/a.json": `{"userId": "1", "ts": 1}`,
		},
		openErr: map[string]error{
			"log_data/a.json": fmt.Errorf("access denied"),
		},
	}
	if _, err := Logs(context.Background(), src, config.S3Location{Bucket: "b"}, 1); err == nil {
		t.Fatalf("expected open error to propagate")
	}
}

func TestListFailureAbortsRead(t *testing.T) {
	src := &fakeSource{listErr: fmt.Errorf("bucket does not exist")}
	if _, err := Songs(context.Background(), src, config.S3Location{Bucket: "b"}, 1); err == nil {
		t.Fatalf("expected list error to propagate")
	}
}
