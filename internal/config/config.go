// Package config loads slic's runtime configuration from defaults, an optional
// config file, SLIC_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys understood by Load. Flags bound through BindFlags use the same names with
// '_' replaced by '-'.
const (
	KeyRoot           = "root"
	KeyRegistryFile   = "registry_file"
	KeyStateDir       = "state_dir"
	KeyJournalFile    = "journal_file"
	KeyComposeCommand = "compose_command"
	KeyComposeFile    = "compose_file"
	KeyServices       = "services"
	KeyGitBinary      = "git_binary"
	KeyLogLevel       = "log_level"
)

const (
	envPrefix   = "SLIC"
	defaultRoot = "~/.slic"
)

// Config is the resolved configuration. All paths are absolute.
type Config struct {
	Root           string
	RegistryFile   string
	StateDir       string
	JournalFile    string
	ComposeCommand string
	ComposeFile    string
	Services       []string
	GitBinary      string
	LogLevel       string
}

// New returns a viper instance with slic's defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyRoot, defaultRoot)
	v.SetDefault(KeyComposeCommand, "docker compose")
	v.SetDefault(KeyServices, []string{"wordpress", "db"})
	v.SetDefault(KeyGitBinary, "git")
	v.SetDefault(KeyLogLevel, "warn")
	return v
}

// BindFlags binds the persistent flags that override configuration keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{KeyRoot, KeyLogLevel} {
		if f := fs.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// Load resolves the configuration. The optional config file is <root>/config.yaml.
func Load(v *viper.Viper) (*Config, error) {
	root, err := homedir.Expand(v.GetString(KeyRoot))
	if err != nil {
		return nil, fmt.Errorf("expand root %q: %w", v.GetString(KeyRoot), err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Root:           root,
		ComposeCommand: v.GetString(KeyComposeCommand),
		Services:       v.GetStringSlice(KeyServices),
		GitBinary:      v.GetString(KeyGitBinary),
		LogLevel:       v.GetString(KeyLogLevel),
	}

	paths := []struct {
		key  string
		def  string
		dest *string
	}{
		{KeyRegistryFile, "slic-stacks.json", &cfg.RegistryFile},
		{KeyStateDir, "stacks", &cfg.StateDir},
		{KeyJournalFile, "journal.db", &cfg.JournalFile},
		{KeyComposeFile, "docker-compose.yml", &cfg.ComposeFile},
	}
	for _, p := range paths {
		resolved, err := resolvePath(root, v.GetString(p.key), p.def)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p.key, err)
		}
		*p.dest = resolved
	}

	if strings.TrimSpace(cfg.ComposeCommand) == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyComposeCommand)
	}
	if cfg.GitBinary == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyGitBinary)
	}

	return cfg, nil
}

// resolvePath expands value relative to root, falling back to root/def.
func resolvePath(root, value, def string) (string, error) {
	if value == "" {
		return filepath.Join(root, def), nil
	}
	expanded, err := homedir.Expand(value)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(root, expanded)
	}
	return filepath.Clean(expanded), nil
}
