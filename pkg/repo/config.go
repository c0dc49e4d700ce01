package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultBranchName seeds core.default_branch for new repositories.
	DefaultBranchName = "main"
	// DefaultCommitMessage is the placeholder used when a commit is created
	// with an empty message.
	DefaultCommitMessage = "**No Message**"
)

// Config stores repository-local settings under .skiff/config.toml.
// Remotes are deliberately not persisted here; origin URIs are call-time
// parameters of the sync layer.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig is the committer identity used when no identity is supplied.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig holds per-repository defaults. Multiple handles with different
// defaults can coexist because these are never process-wide.
type CoreConfig struct {
	DefaultBranch  string `toml:"default_branch"`
	DefaultMessage string `toml:"default_message"`
}

func defaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			DefaultBranch:  DefaultBranchName,
			DefaultMessage: DefaultCommitMessage,
		},
	}
}

func (r *Repo) configPath() string {
	return filepath.Join(r.SkiffDir, "config.toml")
}

// ReadConfig reads .skiff/config.toml. A missing file is not an error; it
// yields the built-in defaults.
func ReadConfig(skiffDir string) (*Config, error) {
	cfg := defaultConfig()
	path := filepath.Join(skiffDir, "config.toml")
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if cfg.Core.DefaultBranch == "" {
		cfg.Core.DefaultBranch = DefaultBranchName
	}
	if cfg.Core.DefaultMessage == "" {
		cfg.Core.DefaultMessage = DefaultCommitMessage
	}
	return cfg, nil
}

// WriteConfig atomically writes .skiff/config.toml and updates the handle.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = defaultConfig()
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.SkiffDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}

	r.Config = cfg
	return nil
}
