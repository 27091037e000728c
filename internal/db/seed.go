package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/codr1/plantfloor/assets"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/models"
)

const seedActor = "system"

// SeedTheme is one entry of the built-in theme catalog.
type SeedTheme struct {
	Name    string             `yaml:"name"`
	Label   string             `yaml:"label"`
	Default bool               `yaml:"default"`
	Config  models.ThemeConfig `yaml:"config"`
}

type themeCatalog struct {
	Themes []SeedTheme `yaml:"themes"`
}

// ParseThemesFile reads the embedded theme catalog and returns its entries in order.
func ParseThemesFile() ([]SeedTheme, error) {
	file, err := assets.ThemesFS.Open(assets.ThemesPath)
	if err != nil {
		return nil, fmt.Errorf("open embedded themes file: %w", err)
	}
	defer file.Close()

	return parseThemes(file)
}

func parseThemes(r io.Reader) ([]SeedTheme, error) {
	var catalog themeCatalog
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("parse themes file: %w", err)
	}
	if len(catalog.Themes) == 0 {
		return nil, fmt.Errorf("themes file defines no themes")
	}

	seen := make(map[string]struct{}, len(catalog.Themes))
	defaultName := ""
	for i := range catalog.Themes {
		theme := &catalog.Themes[i]
		theme.Name = strings.TrimSpace(theme.Name)
		theme.Label = strings.TrimSpace(theme.Label)
		if theme.Name == "" {
			return nil, fmt.Errorf("theme %d has no name", i+1)
		}
		if _, ok := seen[theme.Name]; ok {
			return nil, fmt.Errorf("duplicate theme %q", theme.Name)
		}
		seen[theme.Name] = struct{}{}

		if theme.Default {
			if defaultName != "" {
				return nil, fmt.Errorf("multiple default themes: %q and %q", defaultName, theme.Name)
			}
			defaultName = theme.Name
		}

		theme.Config = theme.Config.WithDefaults()
		input := models.SaveThemeInput{
			Name:       theme.Name,
			Label:      theme.Label,
			Config:     theme.Config,
			ActingUser: seedActor,
		}
		if err := input.Validate(); err != nil {
			return nil, fmt.Errorf("invalid theme %q: %w", theme.Name, err)
		}
	}
	return catalog.Themes, nil
}

// SeedThemes inserts catalog themes that are not stored yet. Existing rows are
// left alone. Every seeded theme starts inactive, and the catalog default is only
// marked default when no default exists.
func (db *DB) SeedThemes(ctx context.Context, themes []SeedTheme) (int, error) {
	inserted := 0
	err := db.RunInTx(ctx, func(tx *DB) error {
		defaults, err := tx.Queries.CountDefaultThemes(ctx)
		if err != nil {
			return fmt.Errorf("count default themes: %w", err)
		}

		for _, theme := range themes {
			config, err := json.Marshal(theme.Config)
			if err != nil {
				return fmt.Errorf("encode theme %q: %w", theme.Name, err)
			}
			isDefault := theme.Default && defaults == 0
			now := time.Now().UTC()
			rows, err := tx.Queries.InsertThemeIfMissing(ctx, dbgen.InsertThemeIfMissingParams{
				Name:      theme.Name,
				Label:     theme.Label,
				Config:    string(config),
				IsActive:  false,
				IsDefault: isDefault,
				CreatedBy: seedActor,
				UpdatedBy: seedActor,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("seed theme %q: %w", theme.Name, err)
			}
			if rows > 0 {
				inserted++
				if isDefault {
					defaults++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int("inserted", inserted).Int("catalog", len(themes)).Msg("Seeded built-in themes")
	return inserted, nil
}
