package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables. A .env file in
// the working directory is loaded first if present; real environment
// variables win over it.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, target *string) {
		if v, ok := os.LookupEnv(key); ok {
			*target = v
		}
	}

	setString("ENDPOINT_ADDR", &config.EndpointAddr)
	setString("BASE_URL", &config.BaseURL)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SECRET_KEY", &config.SecretKey)
	setString("BLOB_STORE", &config.BlobStore)
	setString("UPLOAD_DIR", &config.UploadDir)
	setString("S3_ACCESS_KEY", &config.S3AccessKey)
	setString("S3_SECRET_KEY", &config.S3SecretKey)
	setString("S3_BUCKET", &config.S3Bucket)
	setString("S3_REGION", &config.S3Region)
	setString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := os.LookupEnv("SESSION_TOKEN_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.SessionTokenValidity = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("EXTENDED_TOKEN_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.ExtendedTokenValidity = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv("ANONYMOUS_MODE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.AnonymousMode = b
		}
	}
	if v, ok := os.LookupEnv("MAX_UPLOAD_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxUploadSize = n
		}
	}
}
