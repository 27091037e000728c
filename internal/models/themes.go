// internal/models/themes.go
package models

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	dbgen "github.com/codr1/plantfloor/internal/db/generated"
)

const (
	ThemeTokenCount    = 18
	maxThemeNameLength = 64
	maxThemeLabel      = 100
	systemActor        = "system"
)

var ErrInvalidThemeInput = errors.New("invalid theme")

var (
	themeNameRegex   = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	hexColorRegex    = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	funcColorRegex   = regexp.MustCompile(`^(?:hsla?|rgba?)\(\s*[0-9.]+(?:deg|%)?(?:\s*[,\s]\s*[0-9.]+%?){2}(?:\s*[,/]\s*[0-9.]+%?)?\s*\)$`)
	hslTripletRegex  = regexp.MustCompile(`^-?[0-9]+(?:\.[0-9]+)?(?:deg)?\s+[0-9]+(?:\.[0-9]+)?%\s+[0-9]+(?:\.[0-9]+)?%(?:\s*/\s*[0-9.]+%?)?$`)
	camelBoundaryReg = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// nowFunc is swapped in tests that need control over timestamps.
var nowFunc = func() time.Time { return time.Now().UTC() }

// ThemeConfig is the color-token bundle of a theme. Every value is a CSS color.
type ThemeConfig struct {
	Primary             string `json:"primary" yaml:"primary"`
	PrimaryForeground   string `json:"primaryForeground" yaml:"primaryForeground"`
	Secondary           string `json:"secondary" yaml:"secondary"`
	SecondaryForeground string `json:"secondaryForeground" yaml:"secondaryForeground"`
	Background          string `json:"background" yaml:"background"`
	Foreground          string `json:"foreground" yaml:"foreground"`
	Card                string `json:"card" yaml:"card"`
	CardForeground      string `json:"cardForeground" yaml:"cardForeground"`
	Popover             string `json:"popover" yaml:"popover"`
	PopoverForeground   string `json:"popoverForeground" yaml:"popoverForeground"`
	Muted               string `json:"muted" yaml:"muted"`
	MutedForeground     string `json:"mutedForeground" yaml:"mutedForeground"`
	Accent              string `json:"accent" yaml:"accent"`
	AccentForeground    string `json:"accentForeground" yaml:"accentForeground"`
	Destructive         string `json:"destructive" yaml:"destructive"`
	Border              string `json:"border" yaml:"border"`
	Input               string `json:"input" yaml:"input"`
	Ring                string `json:"ring" yaml:"ring"`
}

// ThemeToken is one named color of a ThemeConfig.
type ThemeToken struct {
	Key   string
	Value string
}

// CSSVar returns the custom property name for the token, e.g. --primary-foreground.
func (t ThemeToken) CSSVar() string {
	return "--" + strings.ToLower(camelBoundaryReg.ReplaceAllString(t.Key, "$1-$2"))
}

// DefaultThemeConfig is the built-in palette used when the store holds no usable theme.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		Primary:             "215 60% 32%",
		PrimaryForeground:   "0 0% 100%",
		Secondary:           "210 16% 93%",
		SecondaryForeground: "215 25% 20%",
		Background:          "0 0% 100%",
		Foreground:          "222 47% 11%",
		Card:                "0 0% 100%",
		CardForeground:      "222 47% 11%",
		Popover:             "0 0% 100%",
		PopoverForeground:   "222 47% 11%",
		Muted:               "210 20% 96%",
		MutedForeground:     "215 16% 47%",
		Accent:              "32 95% 52%",
		AccentForeground:    "222 47% 11%",
		Destructive:         "0 72% 45%",
		Border:              "214 32% 88%",
		Input:               "214 32% 88%",
		Ring:                "215 60% 32%",
	}
}

// Tokens returns the tokens in declaration order.
func (c ThemeConfig) Tokens() []ThemeToken {
	return []ThemeToken{
		{Key: "primary", Value: c.Primary},
		{Key: "primaryForeground", Value: c.PrimaryForeground},
		{Key: "secondary", Value: c.Secondary},
		{Key: "secondaryForeground", Value: c.SecondaryForeground},
		{Key: "background", Value: c.Background},
		{Key: "foreground", Value: c.Foreground},
		{Key: "card", Value: c.Card},
		{Key: "cardForeground", Value: c.CardForeground},
		{Key: "popover", Value: c.Popover},
		{Key: "popoverForeground", Value: c.PopoverForeground},
		{Key: "muted", Value: c.Muted},
		{Key: "mutedForeground", Value: c.MutedForeground},
		{Key: "accent", Value: c.Accent},
		{Key: "accentForeground", Value: c.AccentForeground},
		{Key: "destructive", Value: c.Destructive},
		{Key: "border", Value: c.Border},
		{Key: "input", Value: c.Input},
		{Key: "ring", Value: c.Ring},
	}
}

func (c *ThemeConfig) fields() []*string {
	return []*string{
		&c.Primary, &c.PrimaryForeground,
		&c.Secondary, &c.SecondaryForeground,
		&c.Background, &c.Foreground,
		&c.Card, &c.CardForeground,
		&c.Popover, &c.PopoverForeground,
		&c.Muted, &c.MutedForeground,
		&c.Accent, &c.AccentForeground,
		&c.Destructive,
		&c.Border, &c.Input, &c.Ring,
	}
}

// WithDefaults fills every empty token from the built-in palette.
func (c ThemeConfig) WithDefaults() ThemeConfig {
	defaults := DefaultThemeConfig()
	target := c.fields()
	source := defaults.fields()
	for i, field := range target {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			*field = *source[i]
		}
	}
	return c
}

func (c ThemeConfig) Validate() error {
	for _, token := range c.Tokens() {
		if !IsCSSColor(token.Value) {
			return fmt.Errorf("%w: config.%s must be a CSS color", ErrInvalidThemeInput, token.Key)
		}
	}
	return nil
}

// IsCSSColor accepts hex colors, hsl()/rgb() functions, and bare HSL triplets
// such as "215 60% 32%".
func IsCSSColor(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > 64 {
		return false
	}
	return hexColorRegex.MatchString(value) ||
		funcColorRegex.MatchString(strings.ToLower(value)) ||
		hslTripletRegex.MatchString(value)
}

// ParseThemeConfig decodes a config sent by a client. The payload may be a JSON
// object or a JSON string holding that object. Unknown keys are rejected and
// missing keys are taken from the built-in palette.
func ParseThemeConfig(raw json.RawMessage) (ThemeConfig, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ThemeConfig{}, fmt.Errorf("%w: config is required", ErrInvalidThemeInput)
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return ThemeConfig{}, fmt.Errorf("%w: config must be an object", ErrInvalidThemeInput)
		}
		raw = []byte(strings.TrimSpace(encoded))
		if len(raw) == 0 {
			return ThemeConfig{}, fmt.Errorf("%w: config is required", ErrInvalidThemeInput)
		}
	}
	if raw[0] != '{' {
		return ThemeConfig{}, fmt.Errorf("%w: config must be an object", ErrInvalidThemeInput)
	}

	var cfg ThemeConfig
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return ThemeConfig{}, fmt.Errorf("%w: config: %v", ErrInvalidThemeInput, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ThemeConfig{}, fmt.Errorf("%w: config must hold a single object", ErrInvalidThemeInput)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return ThemeConfig{}, err
	}
	return cfg, nil
}

// decodeStoredConfig is lenient: rows are written by SaveTheme or the seeder,
// so unknown keys are ignored rather than failing a read.
func decodeStoredConfig(raw string) ThemeConfig {
	var cfg ThemeConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return DefaultThemeConfig()
	}
	return cfg.WithDefaults()
}

func encodeConfig(cfg ThemeConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode theme config: %w", err)
	}
	return string(data), nil
}

type ThemeRecord struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Label     string      `json:"label"`
	Config    ThemeConfig `json:"config"`
	IsActive  bool        `json:"isActive"`
	IsDefault bool        `json:"isDefault"`
	CreatedBy string      `json:"createdBy"`
	UpdatedBy string      `json:"updatedBy"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func ThemeFromDB(row dbgen.Theme) ThemeRecord {
	return ThemeRecord{
		ID:        row.ID,
		Name:      row.Name,
		Label:     row.Label,
		Config:    decodeStoredConfig(row.Config),
		IsActive:  row.IsActive,
		IsDefault: row.IsDefault,
		CreatedBy: row.CreatedBy,
		UpdatedBy: row.UpdatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// BuiltinTheme is the record served when the store has neither an active nor a
// default theme.
func BuiltinTheme() ThemeRecord {
	return ThemeRecord{
		Name:      "builtin",
		Label:     "Built-in",
		Config:    DefaultThemeConfig(),
		IsDefault: true,
		CreatedBy: systemActor,
		UpdatedBy: systemActor,
	}
}

type ThemeQueries interface {
	ListThemes(ctx context.Context) ([]dbgen.Theme, error)
	GetThemeByName(ctx context.Context, name string) (dbgen.Theme, error)
	GetActiveTheme(ctx context.Context) (dbgen.Theme, error)
	GetDefaultTheme(ctx context.Context) (dbgen.Theme, error)
	ClearActiveThemes(ctx context.Context, updatedAt time.Time) (int64, error)
	ClearDefaultThemes(ctx context.Context, updatedAt time.Time) (int64, error)
	UpsertTheme(ctx context.Context, arg dbgen.UpsertThemeParams) (dbgen.Theme, error)
}

// ThemeStore is a ThemeQueries that can run a unit of work atomically.
type ThemeStore interface {
	ThemeQueries
	RunThemeTx(ctx context.Context, fn func(ThemeQueries) error) error
}

func ListThemes(ctx context.Context, queries ThemeQueries) ([]ThemeRecord, error) {
	rows, err := queries.ListThemes(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]ThemeRecord, 0, len(rows))
	for _, row := range rows {
		results = append(results, ThemeFromDB(row))
	}
	return results, nil
}

// GetThemeByName returns nil, nil when no theme has the name.
func GetThemeByName(ctx context.Context, queries ThemeQueries, name string) (*ThemeRecord, error) {
	row, err := queries.GetThemeByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	theme := ThemeFromDB(row)
	return &theme, nil
}

// ResolveActiveTheme picks the theme the public site renders with. An active
// non-default theme wins over an active default one, then any default theme,
// then the built-in palette.
func ResolveActiveTheme(ctx context.Context, queries ThemeQueries) (ThemeRecord, error) {
	row, err := queries.GetActiveTheme(ctx)
	if err == nil {
		return ThemeFromDB(row), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return BuiltinTheme(), err
	}

	row, err = queries.GetDefaultTheme(ctx)
	if err == nil {
		return ThemeFromDB(row), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return BuiltinTheme(), err
	}
	return BuiltinTheme(), nil
}

type SaveThemeInput struct {
	Name       string
	Label      string
	Config     ThemeConfig
	IsActive   bool
	IsDefault  bool
	ActingUser string
}

func (in SaveThemeInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidThemeInput)
	}
	if len(in.Name) > maxThemeNameLength || !themeNameRegex.MatchString(in.Name) {
		return fmt.Errorf("%w: name may only contain lowercase letters, numbers, and hyphens", ErrInvalidThemeInput)
	}
	if strings.TrimSpace(in.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidThemeInput)
	}
	if len(in.Label) > maxThemeLabel {
		return fmt.Errorf("%w: label must be %d characters or fewer", ErrInvalidThemeInput, maxThemeLabel)
	}
	if strings.TrimSpace(in.ActingUser) == "" {
		return fmt.Errorf("%w: acting user is required", ErrInvalidThemeInput)
	}
	return in.Config.Validate()
}

// SaveTheme creates or overwrites the theme called in.Name. Marking it default
// clears every other default; marking it active clears every active theme that
// is not also the default. All steps share one transaction.
func SaveTheme(ctx context.Context, store ThemeStore, in SaveThemeInput) (ThemeRecord, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Label = strings.TrimSpace(in.Label)
	if err := in.Validate(); err != nil {
		return ThemeRecord{}, err
	}

	config, err := encodeConfig(in.Config)
	if err != nil {
		return ThemeRecord{}, err
	}

	var saved dbgen.Theme
	err = store.RunThemeTx(ctx, func(q ThemeQueries) error {
		now := nowFunc()
		existing, err := q.GetThemeByName(ctx, in.Name)
		switch {
		case err == nil:
			// updatedAt must move forward even on coarse clocks.
			if !now.After(existing.UpdatedAt) {
				now = existing.UpdatedAt.Add(time.Microsecond)
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("load theme %q: %w", in.Name, err)
		}

		if in.IsDefault {
			if _, err := q.ClearDefaultThemes(ctx, now); err != nil {
				return fmt.Errorf("clear default themes: %w", err)
			}
		}
		if in.IsActive {
			if _, err := q.ClearActiveThemes(ctx, now); err != nil {
				return fmt.Errorf("clear active themes: %w", err)
			}
		}

		saved, err = q.UpsertTheme(ctx, dbgen.UpsertThemeParams{
			Name:      in.Name,
			Label:     in.Label,
			Config:    config,
			IsActive:  in.IsActive,
			IsDefault: in.IsDefault,
			CreatedBy: in.ActingUser,
			UpdatedBy: in.ActingUser,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("upsert theme %q: %w", in.Name, err)
		}
		return nil
	})
	if err != nil {
		return ThemeRecord{}, err
	}
	return ThemeFromDB(saved), nil
}
