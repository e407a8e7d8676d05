package config

import (
	"flag"
	"os"
	"time"

	"github.com/filebeam/filebeam/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-b string   external base URL for download links
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret key
//	-t int      session token validity, seconds
//	-r int      extended ("remember me") token validity, seconds
//	-dir string upload directory for the local blob store
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags handled
// by the JSON layer.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-d", "-s", "-t", "-r", "-dir"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "b", config.BaseURL, "external base URL for download links")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.UploadDir, "dir", config.UploadDir, "upload directory (local blob store)")

	sessionValidity := fs.Int("t", int(config.SessionTokenValidity.Seconds()), "session token validity (in seconds)")
	extendedValidity := fs.Int("r", int(config.ExtendedTokenValidity.Seconds()), "extended token validity (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenValidity = time.Duration(*sessionValidity) * time.Second
	config.ExtendedTokenValidity = time.Duration(*extendedValidity) * time.Second
}
