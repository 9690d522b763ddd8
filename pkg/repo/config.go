package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bitvcs/bit/pkg/object"
)

// Config stores repository-local settings in .bit/config.toml.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig identifies the committer recorded in new commits.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig carries repository-wide knobs.
type CoreConfig struct {
	// SigningKey is the SSH private key path used by commit signing when
	// no key is given on the command line.
	SigningKey string `toml:"signing_key,omitempty"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.BitDir, "config.toml")
}

// ReadConfig reads .bit/config.toml. A missing config returns defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(r.configPath(), &cfg); err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .bit/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}

	tmp, err := os.CreateTemp(r.BitDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// UserIdent returns the configured committer identity, falling back to the
// OS user when unset. The timestamp fields are left zero for the caller to
// fill at commit time.
func (r *Repo) UserIdent() object.Signature {
	ident := object.Signature{Name: "unknown", Email: "unknown@localhost"}
	cfg, err := r.ReadConfig()
	if err == nil {
		if strings.TrimSpace(cfg.User.Name) != "" {
			ident.Name = cfg.User.Name
		}
		if strings.TrimSpace(cfg.User.Email) != "" {
			ident.Email = cfg.User.Email
		}
	}
	if ident.Name == "unknown" {
		if u := os.Getenv("USER"); u != "" {
			ident.Name = u
		}
	}
	return ident
}
