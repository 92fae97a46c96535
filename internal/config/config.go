// Package config wires flag, environment, and file configuration.
//
// Precedence: command-line flag, then CARGO_TALLY_* environment variable,
// then an optional cargo-tally.toml in the working directory, then the
// built-in default.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFile is the optional per-directory configuration file.
const ConfigFile = "cargo-tally.toml"

// File mirrors the layout of cargo-tally.toml.
type File struct {
	DB         string   `toml:"db"`
	Jobs       int      `toml:"jobs"`
	Relative   bool     `toml:"relative"`
	Transitive bool     `toml:"transitive"`
	Title      string   `toml:"title"`
	Exclude    []string `toml:"exclude"`
}

var v *viper.Viper

// Initialize sets defaults and reads the environment and the optional
// config file.
func Initialize() error {
	v = viper.New()
	v.SetEnvPrefix("cargo_tally")
	v.AutomaticEnv()

	v.SetDefault("db", "./db-dump.tar.gz")
	v.SetDefault("jobs", 0)
	v.SetDefault("relative", false)
	v.SetDefault("transitive", false)
	v.SetDefault("title", "")
	v.SetDefault("exclude", []string(nil))
	v.SetDefault("memory_limit", int64(0))

	if _, err := os.Stat(ConfigFile); err == nil {
		var file File
		if _, err := toml.DecodeFile(ConfigFile, &file); err != nil {
			return fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
		}
		if file.DB != "" {
			v.SetDefault("db", file.DB)
		}
		if file.Jobs != 0 {
			v.SetDefault("jobs", file.Jobs)
		}
		if file.Relative {
			v.SetDefault("relative", true)
		}
		if file.Transitive {
			v.SetDefault("transitive", true)
		}
		if file.Title != "" {
			v.SetDefault("title", file.Title)
		}
		if len(file.Exclude) != 0 {
			v.SetDefault("exclude", file.Exclude)
		}
	}
	return nil
}

// BindFlag routes a command-line flag into the configuration with the
// highest precedence.
func BindFlag(key string, flag *pflag.Flag) error {
	return v.BindPFlag(key, flag)
}

// DB returns the path to the database dump.
func DB() string { return v.GetString("db") }

// Jobs returns the configured worker count; zero means automatic.
func Jobs() int { return v.GetInt("jobs") }

// Relative reports whether output is fractions of all published crates.
func Relative() bool { return v.GetBool("relative") }

// Transitive reports whether to tally transitive reverse dependencies.
func Transitive() bool { return v.GetBool("transitive") }

// Title returns the graph title override.
func Title() string { return v.GetString("title") }

// Exclude returns the crate-name exclusion patterns.
func Exclude() []string { return v.GetStringSlice("exclude") }

// MemoryLimit returns the peak-allocation ceiling in bytes; zero means
// unlimited.
func MemoryLimit() int64 { return v.GetInt64("memory_limit") }
