package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/filebeam/filebeam/internal/flagx"
	"github.com/filebeam/filebeam/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for lifetime fields, which allows
// parsing both string values such as "30m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, the fields that were present are
// copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr          *string         `json:"endpoint_addr"`
	BaseURL               *string         `json:"base_url"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	SessionTokenValidity  *timex.Duration `json:"session_token_validity"`
	ExtendedTokenValidity *timex.Duration `json:"extended_token_validity"`
	AnonymousMode         *bool           `json:"anonymous_mode"`
	BlobStore             *string         `json:"blob_store"`
	UploadDir             *string         `json:"upload_dir"`
	MaxUploadSize         *int64          `json:"max_upload_size"`
	S3AccessKey           *string         `json:"s3_access_key"`
	S3SecretKey           *string         `json:"s3_secret_key"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(src *string, target *string) {
		if src != nil {
			*target = *src
		}
	}

	setString(c.EndpointAddr, &config.EndpointAddr)
	setString(c.BaseURL, &config.BaseURL)
	setString(c.DatabaseDSN, &config.DatabaseDSN)
	setString(c.SecretKey, &config.SecretKey)
	setString(c.BlobStore, &config.BlobStore)
	setString(c.UploadDir, &config.UploadDir)
	setString(c.S3AccessKey, &config.S3AccessKey)
	setString(c.S3SecretKey, &config.S3SecretKey)
	setString(c.S3Bucket, &config.S3Bucket)
	setString(c.S3Region, &config.S3Region)
	setString(c.S3BaseEndpoint, &config.S3BaseEndpoint)

	if c.SessionTokenValidity != nil {
		config.SessionTokenValidity = time.Duration(c.SessionTokenValidity.Duration)
	}
	if c.ExtendedTokenValidity != nil {
		config.ExtendedTokenValidity = time.Duration(c.ExtendedTokenValidity.Duration)
	}
	if c.AnonymousMode != nil {
		config.AnonymousMode = *c.AnonymousMode
	}
	if c.MaxUploadSize != nil {
		config.MaxUploadSize = *c.MaxUploadSize
	}
}
