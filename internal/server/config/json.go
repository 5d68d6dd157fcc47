package config

import (
	"encoding/json"
	"os"

	"github.com/manup/agenda/internal/flagx"
	"github.com/manup/agenda/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// timex.Duration so that "1h" and integer nanoseconds are both accepted.
// Pointer and zero-valued fields mean "not set" and keep the current value.
type JsonConfig struct {
	EndpointAddrHTTP string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC string          `json:"endpoint_addr_grpc"`
	DatabaseDSN      string          `json:"database_dsn"`
	LogLevel         string          `json:"log_level"`
	SecretKey        string          `json:"secret_key"`
	SessionTTL       *timex.Duration `json:"session_ttl"`
	ResetTokenTTL    *timex.Duration `json:"reset_token_ttl"`
	ResetURL         string          `json:"reset_url"`
	Argon2Time       uint32          `json:"argon2_time"`
	Argon2MemoryKB   uint32          `json:"argon2_memory_kb"`
	Argon2Threads    uint8           `json:"argon2_threads"`
	SMTPHost         string          `json:"smtp_host"`
	SMTPPort         int             `json:"smtp_port"`
	SMTPUser         string          `json:"smtp_username"`
	SMTPPassword     string          `json:"smtp_password"`
	SMTPFrom         string          `json:"smtp_from"`
	MailDevLog       *bool           `json:"mail_dev_log"`
	RedisAddr        string          `json:"redis_addr"`
	RedisPassword    string          `json:"redis_password"`
	RedisDB          int             `json:"redis_db"`
	S3RootUser       string          `json:"s3_root_user"`
	S3RootPassword   string          `json:"s3_root_password"`
	S3Bucket         string          `json:"s3_bucket"`
	S3Region         string          `json:"s3_region"`
	S3BaseEndpoint   string          `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c / -config in args, if any, and
// copies every field it sets into config. It panics when the file cannot
// be read or is not valid JSON.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.ResetTokenTTL != nil {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	setString(&config.ResetURL, c.ResetURL)
	if c.Argon2Time != 0 {
		config.Argon2Time = c.Argon2Time
	}
	if c.Argon2MemoryKB != 0 {
		config.Argon2MemoryKB = c.Argon2MemoryKB
	}
	if c.Argon2Threads != 0 {
		config.Argon2Threads = c.Argon2Threads
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	if c.MailDevLog != nil {
		config.MailDevLog = *c.MailDevLog
	}
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
