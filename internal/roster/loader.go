// Package roster loads the teacher registry from a YAML, JSON or TOML file.
package roster

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/noah-isme/bps-routine/internal/models"
)

type file struct {
	School   string              `mapstructure:"school"`
	Teachers []models.TeacherRef `mapstructure:"teachers"`
}

// Document is a parsed roster file.
type Document struct {
	School string
	Roster *models.Roster
}

// LoadFile reads a roster file; the format follows the extension.
func LoadFile(path string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read roster %s: %w", filepath.Base(path), err)
	}
	return decode(v)
}

// Load reads a roster from r in the given format ("yaml", "json" or "toml").
func Load(r io.Reader, format string) (*Document, error) {
	v := viper.New()
	v.SetConfigType(strings.TrimPrefix(strings.ToLower(format), "."))
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Document, error) {
	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if len(f.Teachers) == 0 {
		return nil, fmt.Errorf("roster has no teachers")
	}
	registry, err := models.NewRoster(f.Teachers)
	if err != nil {
		return nil, err
	}
	return &Document{School: f.School, Roster: registry}, nil
}
