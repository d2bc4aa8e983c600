package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds server and client configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr           string        `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	MaxFrameBytes      int           `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
	SendBuffer         int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// DatabasePath enables the SQLite room directory when set.
	DatabasePath string       `mapstructure:"database_path" yaml:"database_path"`
	Social       SocialConfig `mapstructure:"social" yaml:"social"`
}

// SocialConfig holds credentials for the social-media direct message API.
type SocialConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	ConsumerKey    string        `mapstructure:"consumer_key" yaml:"consumer_key"`
	ConsumerSecret string        `mapstructure:"consumer_secret" yaml:"consumer_secret"`
	AccessToken    string        `mapstructure:"access_token" yaml:"access_token"`
	AccessSecret   string        `mapstructure:"access_secret" yaml:"access_secret"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// Enabled reports whether all four OAuth1 credentials are present.
func (s SocialConfig) Enabled() bool {
	return s.ConsumerKey != "" && s.ConsumerSecret != "" && s.AccessToken != "" && s.AccessSecret != ""
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		HTTPAddr:          ":8081",
		LogLevel:          "info",
		MaxFrameBytes:     64 << 10,
		SendBuffer:        64,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		Social: SocialConfig{
			BaseURL:     "https://api.twitter.com",
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxFrameBytes != 0 {
		c.MaxFrameBytes = other.MaxFrameBytes
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.Social.BaseURL != "" {
		c.Social.BaseURL = other.Social.BaseURL
	}
	if other.Social.ConsumerKey != "" {
		c.Social.ConsumerKey = other.Social.ConsumerKey
	}
	if other.Social.ConsumerSecret != "" {
		c.Social.ConsumerSecret = other.Social.ConsumerSecret
	}
	if other.Social.AccessToken != "" {
		c.Social.AccessToken = other.Social.AccessToken
	}
	if other.Social.AccessSecret != "" {
		c.Social.AccessSecret = other.Social.AccessSecret
	}
	if other.Social.Timeout != 0 {
		c.Social.Timeout = other.Social.Timeout
	}
	if other.Social.MaxAttempts != 0 {
		c.Social.MaxAttempts = other.Social.MaxAttempts
	}
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.MaxFrameBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_frame_bytes must be positive, got %d", c.MaxFrameBytes))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.RateLimitPerMinute))
	}
	if c.WriteTimeout < 0 || c.ShutdownTimeout < 0 || c.ReadHeaderTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Social.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("social.max_attempts must not be negative, got %d", c.Social.MaxAttempts))
	}
	return errors.Join(errs...)
}
