package config

import (
	"sync"
)

var (
	s3Once   sync.Once
	s3Config *S3Config
)

// S3Config configures the S3-compatible bucket downloaded PDFs are copied to
// (AWS S3 or Cloudflare R2).
type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	// PublicURL prefixes object keys to build the stored document URL.
	PublicURL string
}

func GetS3Config() *S3Config {
	s3Once.Do(func() {
		loadEnv()
		s3Config = &S3Config{
			BucketName: getEnv("AWS_S3_BUCKET_NAME", ""),
			Region:     getEnv("AWS_REGION", "auto"),
			Endpoint:   getEnv("AWS_ENDPOINT", ""),
			AccessKey:  getEnv("AWS_ACCESS_KEY", ""),
			SecretKey:  getEnv("AWS_SECRET_KEY", ""),
			PublicURL:  getEnv("AWS_PUBLIC_URL", ""),
		}
	})
	return s3Config
}
