// The etl command runs the sparkify data-lake job: it reads the song and
// log JSON datasets from S3 and writes the star-schema tables back as
// parquet files. Configuration comes from dl.env and the environment; the
// command takes no arguments.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/troyjc/data-lake-project/internal/config"
	"github.com/troyjc/data-lake-project/internal/pipeline"
	"github.com/troyjc/data-lake-project/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	log.Printf("input:  s3://%s/%s", cfg.InputData.Bucket, cfg.InputData.Prefix)
	log.Printf("output: s3://%s/%s", cfg.OutputData.Bucket, cfg.OutputData.Prefix)
	log.Printf("workers: %d", cfg.Workers)

	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	}))

	p := pipeline.New(storage.New(sess), cfg)
	if _, err := p.Run(context.Background()); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	log.Println("ETL pipeline completed successfully")
}
