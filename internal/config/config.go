// Package config loads runtime configuration from environment variables.
// A .env file is read in cmd/webnote before Load runs, and command-line
// flags override whatever Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Host is the only interface the server listens on. The editor is meant for
// the local machine; remote access is out of scope.
const Host = "127.0.0.1"

// Config holds the application configuration.
type Config struct {
	Port      int    // WEBNOTE_PORT (default: 3000)
	Encoding  string // WEBNOTE_ENCODING (default: utf-8)
	File      string // WEBNOTE_FILE (optional: note path to bind at startup)
	LogDir    string // WEBNOTE_LOG_DIR (optional: also log to rotating files there)
	LogFormat string // WEBNOTE_LOG_FORMAT text|json (default: text)
	AccessLog bool   // WEBNOTE_ACCESS_LOG (default: false)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:      envInt("WEBNOTE_PORT", 3000),
		Encoding:  envStr("WEBNOTE_ENCODING", "utf-8"),
		File:      envStr("WEBNOTE_FILE", ""),
		LogDir:    envStr("WEBNOTE_LOG_DIR", ""),
		LogFormat: envStr("WEBNOTE_LOG_FORMAT", "text"),
		AccessLog: envBool("WEBNOTE_ACCESS_LOG", false),
	}
}

// ListenAddr returns the loopback listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", Host, c.Port)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
