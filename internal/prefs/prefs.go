package prefs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/msalah0e/castgraph/internal/config"
)

// Display themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Prefs are display preferences persisted across runs.
type Prefs struct {
	Theme     string    `toml:"theme"`
	UpdatedAt time.Time `toml:"updated_at"`
}

// Path returns the preferences file location.
func Path() string {
	return filepath.Join(config.ConfigDir(), "prefs.toml")
}

// Load reads the preferences file, returning dark-theme defaults if it doesn't
// exist or holds an unknown theme.
func Load() *Prefs {
	p := &Prefs{Theme: ThemeDark}
	data, err := os.ReadFile(Path())
	if err != nil {
		return p
	}
	_ = toml.Unmarshal(data, p)
	if !Valid(p.Theme) {
		p.Theme = ThemeDark
	}
	return p
}

// Save writes the preferences file to disk.
func Save(p *Prefs) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(p)
}

// Valid reports whether theme is a known theme name.
func Valid(theme string) bool {
	return theme == ThemeDark || theme == ThemeLight
}

// SetTheme persists theme.
func SetTheme(theme string) error {
	if !Valid(theme) {
		return errors.Newf("unknown theme %q (want %s or %s)", theme, ThemeDark, ThemeLight)
	}
	p := Load()
	p.Theme = theme
	p.UpdatedAt = time.Now()
	return Save(p)
}

// Toggle flips between dark and light and returns the new theme.
func Toggle() (string, error) {
	next := ThemeLight
	if Load().Theme == ThemeLight {
		next = ThemeDark
	}
	return next, SetTheme(next)
}
