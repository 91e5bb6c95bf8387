package config

import (
	"errors"
	"testing"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    S3Location
		wantErr bool
	}{
		{name: "bucket only", raw: "s3://udacity-dend/", want: S3Location{Bucket: "udacity-dend"}},
		{name: "bucket no slash", raw: "s3://udacity-dend", want: S3Location{Bucket: "udacity-dend"}},
		{name: "bucket and prefix", raw: "s3://troych-udacity/analytics/", want: S3Location{Bucket: "troych-udacity", Prefix: "analytics"}},
		{name: "s3a scheme", raw: "s3a://udacity-dend/", want: S3Location{Bucket: "udacity-dend"}},
		{name: "nested prefix", raw: "s3://b/a/b/c", want: S3Location{Bucket: "b", Prefix: "a/b/c"}},
		{name: "wrong scheme", raw: "https://example.com/x", wantErr: true},
		{name: "empty bucket", raw: "s3:///prefix", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseS3URL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseS3URL(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	loc := S3Location{Bucket: "b", Prefix: "analytics"}
	if got := loc.Join("songs", "year=2018"); got != "analytics/songs/year=2018" {
		t.Errorf("unexpected key %q", got)
	}
	bare := S3Location{Bucket: "b"}
	if got := bare.Join("song_data"); got != "song_data" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("INPUT_DATA", "s3://udacity-dend/")
	t.Setenv("OUTPUT_DATA", "s3://troych-udacity/analytics/")
	t.Setenv("AWS_REGION", "")
	t.Setenv("ETL_WORKERS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InputData.Bucket != "udacity-dend" {
		t.Errorf("unexpected input bucket %q", cfg.InputData.Bucket)
	}
	if cfg.OutputData.Prefix != "analytics" {
		t.Errorf("unexpected output prefix %q", cfg.OutputData.Prefix)
	}
	if cfg.Region != "us-west-2" {
		t.Errorf("expected default region, got %q", cfg.Region)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Workers)
	}
}

func TestLoadMissingInput(t *testing.T) {
	t.Setenv("INPUT_DATA", "")
	t.Setenv("OUTPUT_DATA", "s3://out/")
	if _, err := Load(); !errors.Is(err, ErrMissingInputData) {
		t.Fatalf("expected ErrMissingInputData, got %v", err)
	}
}

func TestLoadBadWorkers(t *testing.T) {
	t.Setenv("INPUT_DATA", "s3://in/")
	t.Setenv("OUTPUT_DATA", "s3://out/")
	t.Setenv("ETL_WORKERS", "zero")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid ETL_WORKERS")
	}
}
