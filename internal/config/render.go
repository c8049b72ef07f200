package config

import (
	"strings"

	"github.com/spf13/viper"
)

// RenderConfig tunes the fixed PDF invoice layout. Geometry itself is not
// configurable; only the text limits and footer copy are.
type RenderConfig struct {
	// AddressWrapWidth caps the customer address lines at a column width.
	AddressWrapWidth int `mapstructure:"addressWrapWidth"`
	// CellTextLimit is the per-cell character cap before ellipsis truncation.
	CellTextLimit  int    `mapstructure:"cellTextLimit"`
	CurrencySymbol string `mapstructure:"currencySymbol"`
	FooterNote     string `mapstructure:"footerNote"`
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		AddressWrapWidth: 30,
		CellTextLimit:    35,
		CurrencySymbol:   "$",
		FooterNote:       "Thank you for your business!",
	}
}

// NewRenderConfig reads render.yml if present, falling back to defaults.
func NewRenderConfig() (RenderConfig, error) {
	v := viper.New()

	v.SetConfigName("render")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invoicer")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INVOICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRenderConfig()
	v.SetDefault("render.addressWrapWidth", defaults.AddressWrapWidth)
	v.SetDefault("render.cellTextLimit", defaults.CellTextLimit)
	v.SetDefault("render.currencySymbol", defaults.CurrencySymbol)
	v.SetDefault("render.footerNote", defaults.FooterNote)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return RenderConfig{}, err
		}
	}

	var cfg RenderConfig
	if err := v.UnmarshalKey("render", &cfg); err != nil {
		return RenderConfig{}, err
	}
	if cfg.AddressWrapWidth <= 0 {
		cfg.AddressWrapWidth = defaults.AddressWrapWidth
	}
	if cfg.CellTextLimit <= 0 {
		cfg.CellTextLimit = defaults.CellTextLimit
	}
	return cfg, nil
}
