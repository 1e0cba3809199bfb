package model

// AppConfig holds application-wide preferences and composer defaults.
type AppConfig struct {
	// Defaults applied to new modules
	DefaultMode       LayoutMode `yaml:"default_mode" json:"default_mode"`
	DefaultColumns    int        `yaml:"default_columns" json:"default_columns"`
	DefaultRowHeight  int        `yaml:"default_row_height" json:"default_row_height"`
	DefaultExtraRows  int        `yaml:"default_extra_rows" json:"default_extra_rows"`
	HistoryDepth      int        `yaml:"history_depth" json:"history_depth"`
	EditDebounceMs    int        `yaml:"edit_debounce_ms" json:"edit_debounce_ms"`
	MatchTallestRow   bool       `yaml:"match_tallest_row" json:"match_tallest_row"`
	AllowResizeShrink bool       `yaml:"allow_resize_shrink" json:"allow_resize_shrink"`

	// Application preferences
	LogLevel      string   `yaml:"log_level" json:"log_level"` // "debug", "info", "warn", "error"
	RecentModules []string `yaml:"recent_modules" json:"recent_modules"`
}

// DefaultAppConfig returns an AppConfig populated with the defaults of
// DefaultLayoutConfig.
func DefaultAppConfig() AppConfig {
	defaults := DefaultLayoutConfig()
	return AppConfig{
		DefaultMode:       defaults.Mode,
		DefaultColumns:    defaults.MaxColumns,
		DefaultRowHeight:  defaults.RowHeight,
		DefaultExtraRows:  0,
		HistoryDepth:      120,
		EditDebounceMs:    140,
		MatchTallestRow:   defaults.SimpleMatchTallestRow,
		AllowResizeShrink: true,
		LogLevel:          "info",
		RecentModules:     []string{},
	}
}

// ApplyToLayout copies the composer defaults into a LayoutConfig.
// This is used when creating a new module so it inherits the saved defaults.
func (c AppConfig) ApplyToLayout(l *LayoutConfig) {
	if c.DefaultMode != "" {
		l.Mode = c.DefaultMode
	}
	if c.DefaultColumns > 0 {
		l.MaxColumns = c.DefaultColumns
	}
	if c.DefaultRowHeight > 0 {
		l.RowHeight = c.DefaultRowHeight
	}
	l.SimpleMatchTallestRow = c.MatchTallestRow
}

// AddRecent records path as the most recently opened module, keeping at
// most limit entries without duplicates.
func (c *AppConfig) AddRecent(path string, limit int) {
	recent := []string{path}
	for _, p := range c.RecentModules {
		if p != path {
			recent = append(recent, p)
		}
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	c.RecentModules = recent
}
