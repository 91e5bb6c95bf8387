// Package config loads the job configuration from a dl.env file and the
// environment. Credentials are left to the AWS SDK's usual chain.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	// ErrMissingInputData is returned when INPUT_DATA is not set.
	ErrMissingInputData = errors.New("missing INPUT_DATA environment variable")
	// ErrMissingOutputData is returned when OUTPUT_DATA is not set.
	ErrMissingOutputData = errors.New("missing OUTPUT_DATA environment variable")
)

// S3Location is a bucket plus a key prefix, parsed from an s3:// URL.
type S3Location struct {
	Bucket string
	Prefix string
}

// Config holds everything a run needs.
type Config struct {
	InputData  S3Location
	OutputData S3Location
	Region     string
	Workers    int
}

// Load reads dl.env (if present) into the environment and builds the run
// configuration. INPUT_DATA and OUTPUT_DATA are required s3:// URLs;
// AWS_REGION and ETL_WORKERS are optional.
func Load() (*Config, error) {
	// A missing dl.env just means everything comes from the environment.
	_ = godotenv.Load("dl.env")

	in := os.Getenv("INPUT_DATA")
	if in == "" {
		return nil, ErrMissingInputData
	}
	input, err := ParseS3URL(in)
	if err != nil {
		return nil, fmt.Errorf("INPUT_DATA: %w", err)
	}

	out := os.Getenv("OUTPUT_DATA")
	if out == "" {
		return nil, ErrMissingOutputData
	}
	output, err := ParseS3URL(out)
	if err != nil {
		return nil, fmt.Errorf("OUTPUT_DATA: %w", err)
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-west-2"
	}

	workers := runtime.NumCPU() * 2
	if v := os.Getenv("ETL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("ETL_WORKERS: invalid worker count %q", v)
		}
		workers = n
	}

	return &Config{
		InputData:  input,
		OutputData: output,
		Region:     region,
		Workers:    workers,
	}, nil
}

// ParseS3URL splits an s3://bucket/prefix URL into its location parts.
// The s3a:// scheme is accepted as well. The prefix may be empty.
func ParseS3URL(raw string) (S3Location, error) {
	rest := ""
	switch {
	case strings.HasPrefix(raw, "s3://"):
		rest = strings.TrimPrefix(raw, "s3://")
	case strings.HasPrefix(raw, "s3a://"):
		rest = strings.TrimPrefix(raw, "s3a://")
	default:
		return S3Location{}, fmt.Errorf("not an s3 URL: %q", raw)
	}

	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return S3Location{}, fmt.Errorf("no bucket in %q", raw)
	}
	return S3Location{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Join appends path elements to the location's prefix.
func (l S3Location) Join(elem ...string) string {
	parts := make([]string, 0, len(elem)+1)
	if l.Prefix != "" {
		parts = append(parts, l.Prefix)
	}
	parts = append(parts, elem...)
	return strings.Join(parts, "/")
}
