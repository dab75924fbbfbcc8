package config

import (
	"fmt"
	"io"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const redacted = "<set via environment>"

// Defaults returns the configuration produced by the built-in defaults alone.
func Defaults() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}
	return &cfg, nil
}

// WriteExample writes cfg as YAML with every secret replaced by a placeholder.
// The output can be fed back through CONFIG_FILE.
func WriteExample(w io.Writer, cfg *Config) error {
	out := *cfg
	out.Database.Password = redactIfSet(out.Database.Password)
	out.Redis.Password = redactIfSet(out.Redis.Password)
	out.Replication.Git.Token = redactIfSet(out.Replication.Git.Token)
	out.Replication.S3.SecretAccessKey = redactIfSet(out.Replication.S3.SecretAccessKey)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func redactIfSet(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}
