package config

import (
	"os"
	"time"

	"github.com/arthur-debert/dopatch/pkg/document"
	"github.com/arthur-debert/dopatch/pkg/matcher"
	"github.com/arthur-debert/dopatch/pkg/orchestrator"
	"github.com/arthur-debert/dopatch/pkg/report"
	"github.com/arthur-debert/dopatch/pkg/verifier"
)

// Run holds run-level behavior
type Run struct {
	Halt          string `koanf:"halt" toml:"halt"`
	AcceptPartial bool   `koanf:"accept_partial" toml:"accept_partial"`
}

// Output holds report settings
type Output struct {
	Format      string `koanf:"format" toml:"format"`
	DiffContext int    `koanf:"diff_context" toml:"diff_context"`
}

// Store holds persistence settings
type Store struct {
	Backup       bool        `koanf:"backup" toml:"backup"`
	BackupSuffix string      `koanf:"backup_suffix" toml:"backup_suffix"`
	FileMode     os.FileMode `koanf:"file_mode" toml:"file_mode"`
}

// Matcher holds pattern engine settings
type Matcher struct {
	RegexTimeout time.Duration `koanf:"regex_timeout" toml:"regex_timeout"`
}

// Verifier holds verifier defaults
type Verifier struct {
	Scope string `koanf:"scope" toml:"scope"`
}

// Config is the resolved dopatch configuration
type Config struct {
	Run      Run      `koanf:"run"`
	Output   Output   `koanf:"output"`
	Store    Store    `koanf:"store"`
	Matcher  Matcher  `koanf:"matcher"`
	Verifier Verifier `koanf:"verifier"`
}

// Default returns the configuration built from the embedded defaults only
func Default() *Config {
	cfg, err := Load(LoadOptions{SkipUser: true, SkipProject: true, SkipEnv: true})
	if err != nil {
		// the embedded defaults are part of the binary
		panic(err)
	}
	return cfg
}

// HaltPolicy returns the parsed run.halt value
func (c *Config) HaltPolicy() (orchestrator.HaltPolicy, error) {
	return orchestrator.ParseHalt(c.Run.Halt)
}

// OutputFormat returns the parsed output.format value
func (c *Config) OutputFormat() (report.Format, error) {
	return report.ParseFormat(c.Output.Format)
}

// VerifierScope returns the parsed verifier.scope value
func (c *Config) VerifierScope() (verifier.Scope, error) {
	return verifier.ParseScope(c.Verifier.Scope)
}

// MatcherOptions converts the matcher section
func (c *Config) MatcherOptions() matcher.Options {
	return matcher.Options{Timeout: c.Matcher.RegexTimeout}
}

// StoreOptions converts the store section
func (c *Config) StoreOptions() document.StoreOptions {
	return document.StoreOptions{
		Backup:       c.Store.Backup,
		BackupSuffix: c.Store.BackupSuffix,
		FileMode:     c.Store.FileMode,
	}
}

// Validate checks every enumerated value
func (c *Config) Validate() error {
	if _, err := c.HaltPolicy(); err != nil {
		return err
	}
	if _, err := c.OutputFormat(); err != nil {
		return err
	}
	if _, err := c.VerifierScope(); err != nil {
		return err
	}
	return nil
}
