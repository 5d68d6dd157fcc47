package config

import (
	"flag"

	"github.com/manup/agenda/internal/flagx"
)

var knownFlags = []string{
	"-a", "-g", "-d", "-s", "-t", "-r", "-l",
	"-reset-url", "-redis", "-smtp-host", "-b", "-e",
}

// parseFlags overlays command-line flags onto config.
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-g string          gRPC health bind address
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-t duration        session token validity (e.g. "1h")
//	-r duration        reset token validity
//	-l string          log level
//	-reset-url string  base URL of the password reset page
//	-redis string      Redis address for rate limiting (empty: in-memory)
//	-smtp-host string  SMTP relay host
//	-b string          S3 bucket for forum attachments
//	-e string          S3 base endpoint
//
// Unknown flags in args are ignored so the JSON -c flag can coexist.
// It panics on malformed values.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session token validity")
	fs.DurationVar(&config.ResetTokenTTL, "r", config.ResetTokenTTL, "reset token validity")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.ResetURL, "reset-url", config.ResetURL, "password reset page URL")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP host")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
