// Package reader materializes the two input record collections from object
// storage. Files are fetched concurrently; the first failure aborts the
// whole read, there is no partial-result recovery.
package reader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/troyjc/data-lake-project/internal/config"
	"github.com/troyjc/data-lake-project/internal/model"
)

// Prefixes of the two datasets under the input location.
const (
	SongDataPrefix = "song_data"
	LogDataPrefix  = "log_data"
)

// Source is the subset of the storage client the reader needs.
type Source interface {
	ListJSONKeys(ctx context.Context, bucket, prefix string) ([]string, error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Songs reads every song-metadata record under the input location.
func Songs(ctx context.Context, src Source, in config.S3Location, workers int) ([]model.SongRecord, error) {
	var (
		mu      sync.Mutex
		records []model.SongRecord
	)
	err := forEachFile(ctx, src, in, SongDataPrefix, workers, func(r io.Reader) error {
		return decodeObjects(r, func(raw json.RawMessage) error {
			var rec model.SongRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Logs reads every user-activity record under the input location.
func Logs(ctx context.Context, src Source, in config.S3Location, workers int) ([]model.LogRecord, error) {
	var (
		mu      sync.Mutex
		records []model.LogRecord
	)
	err := forEachFile(ctx, src, in, LogDataPrefix, workers, func(r io.Reader) error {
		return decodeObjects(r, func(raw json.RawMessage) error {
			var rec model.LogRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// forEachFile lists the JSON keys under prefix and runs fn on each file's
// body, at most workers files at a time. The first error cancels the
// remaining fetches and is returned.
func forEachFile(ctx context.Context, src Source, in config.S3Location, prefix string, workers int, fn func(io.Reader) error) error {
	keys, err := src.ListJSONKeys(ctx, in.Bucket, in.Join(prefix))
	if err != nil {
		return err
	}
	log.Printf("found %d JSON files under s3://%s/%s", len(keys), in.Bucket, in.Join(prefix))

	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, workers)
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			body, err := src.Open(ctx, in.Bucket, key)
			if err != nil {
				fail(err)
				return
			}
			defer body.Close()

			if err := fn(body); err != nil {
				fail(fmt.Errorf("failed to parse s3://%s/%s: %w", in.Bucket, key, err))
			}
		}(key)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// decodeObjects calls fn for every top-level JSON object in r. Song files
// hold a single object, log files one object per line; a plain decode loop
// handles both.
func decodeObjects(r io.Reader, fn func(json.RawMessage) error) error {
	dec := json.NewDecoder(r)
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
}
