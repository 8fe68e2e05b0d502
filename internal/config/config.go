// Package config builds a compile job's Config in three layers: built-in
// defaults, then an optional TOML file, then CLI flags, each overriding
// the last.
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alexflint/go-arg"
)

// Config is the set of knobs threaded through a compile job: the module
// search path, archive-compression default, CJMOD search paths, and
// verbosity.
type Config struct {
	ModulePath       []string `toml:"module_path"`
	Compress         bool     `toml:"compress"`
	CJModSearchPaths []string `toml:"cjmod_search_paths"`
	Verbose          bool     `toml:"verbose"`
}

// Defaults returns the built-in configuration before any file or flag
// overrides are applied.
func Defaults() Config {
	return Config{
		Compress: true,
	}
}

// Args is the CLI flag surface go-arg parses into, embedding Config so its
// fields double as flags (e.g. "--compress", "--verbose").
type Args struct {
	Config
	ConfigFile string `arg:"--config" help:"path to a chtl.toml config file"`
	Input      string `arg:"positional" help:"input .chtl file"`
	Output     string `arg:"positional" help:"output file, or '-' for stdout"`
}

// Load builds a Config by layering Defaults(), then CHTL_MODULE_PATH (if
// set), then an optional TOML file, then argv flags, in that order.
func Load(argv []string) (Config, Args, error) {
	// The parser is built over a zero-valued Args: go-arg turns any nonzero
	// field it sees at construction into a default that every Parse
	// re-applies, which would clobber the env and TOML layers.
	var parsedArgs Args
	parser, err := arg.NewParser(arg.Config{}, &parsedArgs)
	if err != nil {
		return Config{}, Args{}, err
	}
	if err := parser.Parse(argv); err != nil {
		return Config{}, Args{}, err
	}

	cfg := Defaults()
	if envPath := os.Getenv("CHTL_MODULE_PATH"); envPath != "" {
		cfg.ModulePath = strings.Split(envPath, ":")
	}
	if parsedArgs.ConfigFile != "" {
		if err := applyTOMLFile(&cfg, parsedArgs.ConfigFile); err != nil {
			return Config{}, Args{}, err
		}
	} else if _, err := os.Stat("chtl.toml"); err == nil {
		if err := applyTOMLFile(&cfg, "chtl.toml"); err != nil {
			return Config{}, Args{}, err
		}
	}

	// Re-parse flags over the file-derived config so an explicit flag wins
	// over the file: decode the TOML file, then re-parse argv so flags
	// always have the last word.
	parsedArgs.Config = cfg
	if err := parser.Parse(argv); err != nil {
		return Config{}, Args{}, err
	}
	return parsedArgs.Config, parsedArgs, nil
}

func applyTOMLFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}
