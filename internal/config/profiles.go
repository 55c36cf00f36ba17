// internal/config/profiles.go
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Backend kinds a profile can target.
const (
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

// Environment tags label a profile in the UI. They carry no behavior.
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// Credential policies, matched by the credential resolver.
const (
	PolicyStore        = "store"
	PolicyPromptAlways = "prompt-always"
	PolicyNeverSave    = "never-save"
)

// Profile represents a saved connection. Profiles are keyed by ID so that
// renaming one never orphans its stored secret or history. A profile is
// never edited while a session to it is open.
type Profile struct {
	ID               string      `toml:"id"`
	Name             string      `toml:"name"`
	Kind             string      `toml:"kind"`
	Host             string      `toml:"host,omitempty"`
	Port             int         `toml:"port,omitempty"`
	User             string      `toml:"user,omitempty"`
	Database         string      `toml:"database,omitempty"`
	Path             string      `toml:"path,omitempty"`
	Environment      string      `toml:"environment,omitempty"`
	CredentialPolicy string      `toml:"credential_policy,omitempty"`
	SSH              *SSHProfile `toml:"ssh,omitempty"`
}

// SSHProfile configures an optional SSH tunnel for a profile.
type SSHProfile struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port,omitempty"`
	User    string `toml:"user"`
	KeyPath string `toml:"key_path,omitempty"`
}

// Validate checks a profile for the fields its kind requires.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	switch p.Kind {
	case KindPostgres:
		if p.Host == "" {
			return fmt.Errorf("profile %s: host is required for postgres", p.Name)
		}
		if p.User == "" {
			return fmt.Errorf("profile %s: user is required for postgres", p.Name)
		}
	case KindSQLite:
		if p.Path == "" {
			return fmt.Errorf("profile %s: path is required for sqlite", p.Name)
		}
	case "":
		return fmt.Errorf("profile %s: kind is required", p.Name)
	default:
		return fmt.Errorf("profile %s: unknown kind %q", p.Name, p.Kind)
	}
	switch p.Environment {
	case "", EnvDev, EnvStaging, EnvProd:
	default:
		return fmt.Errorf("profile %s: unknown environment %q", p.Name, p.Environment)
	}
	switch p.CredentialPolicy {
	case "", PolicyStore, PolicyPromptAlways, PolicyNeverSave:
	default:
		return fmt.Errorf("profile %s: unknown credential policy %q", p.Name, p.CredentialPolicy)
	}
	return nil
}

// Address renders the profile target for display.
func (p *Profile) Address() string {
	if p.Kind == KindSQLite {
		return p.Path
	}
	if p.Port > 0 {
		return fmt.Sprintf("%s:%d", p.Host, p.Port)
	}
	return p.Host
}

// ListProfiles returns a copy of all saved profiles.
func (c *Config) ListProfiles() []Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Profile, len(c.Profiles))
	copy(out, c.Profiles)
	return out
}

// ProfileByID retrieves a copy of a profile by ID.
func (c *Config) ProfileByID(id string) (*Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.Profiles {
		if c.Profiles[i].ID == id {
			p := c.Profiles[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("profile not found: %s", id)
}

// ProfileByName retrieves a copy of a profile by display name.
func (c *Config) ProfileByName(name string) (*Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			p := c.Profiles[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("profile not found: %s", name)
}

// AddProfile validates a new profile, assigns it an ID and persists it.
func (c *Config) AddProfile(p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.Profiles {
		if existing.Name == p.Name {
			return Profile{}, fmt.Errorf("profile already exists: %s", p.Name)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	c.Profiles = append(c.Profiles, p)
	return p, c.save()
}

// UpdateProfile replaces the profile with the given ID.
func (c *Config) UpdateProfile(id string, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.Profiles {
		if c.Profiles[i].ID == id {
			p.ID = id
			c.Profiles[i] = p
			return c.save()
		}
	}
	return fmt.Errorf("profile not found: %s", id)
}

// DeleteProfile removes a profile. The caller is responsible for deleting
// its stored secret.
func (c *Config) DeleteProfile(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.Profiles {
		if c.Profiles[i].ID == id {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return c.save()
		}
	}
	return fmt.Errorf("profile not found: %s", id)
}

// ParseDSN parses a connection string into a profile. A password embedded
// in the DSN is returned separately and never stored on the profile.
func ParseDSN(name, dsn string) (Profile, string, error) {
	p := Profile{Name: name}

	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		u, err := url.Parse(dsn)
		if err != nil {
			return p, "", err
		}
		p.Kind = KindPostgres
		p.Host = u.Hostname()
		if port := u.Port(); port == "" {
			p.Port = 5432
		} else {
			p.Port, _ = strconv.Atoi(port)
		}
		p.User = u.User.Username()
		p.Database = strings.TrimPrefix(u.Path, "/")
		secret, _ := u.User.Password()
		return p, secret, nil

	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"):
		p.Kind = KindSQLite
		path := strings.TrimPrefix(dsn, "sqlite://")
		path = strings.TrimPrefix(path, "file:")
		p.Path = path
		return p, "", nil

	default:
		// No scheme: treat as a SQLite file path.
		p.Kind = KindSQLite
		p.Path = dsn
		return p, "", nil
	}
}
