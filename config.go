package kamusi

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"

	"github.com/kamusihq/kamusi/lang"
)

// Config holds the translation inputs that are decided once, at startup: the
// ordered list of supported languages, the distinguished default language
// whose storage slot doubles as the legacy pre-translation column, and an
// optional whitelist of additional Go field types eligible for translation.
type Config struct {
	Languages []lang.Code `envSeparator:"," env:"TRANSLATION_LANGUAGES"        yaml:"languages"`
	Default   lang.Code   `env:"TRANSLATION_DEFAULT_LANGUAGE" yaml:"default_language"`

	// CustomKinds lists fully qualified Go type names, e.g. "mypkg.SKU",
	// whose string-backed fields may be translated in addition to the
	// built-in kinds.
	CustomKinds []string `envSeparator:"," env:"TRANSLATION_CUSTOM_KINDS" yaml:"custom_kinds"`
}

// ConfigFromEnv convenience method to process translation configs.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate normalizes all language codes and checks that the default
// language is one of the configured languages.
func (c *Config) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("translation config: no languages configured")
	}

	for i, code := range c.Languages {
		normalized, err := lang.Normalize(code)
		if err != nil {
			return fmt.Errorf("translation config: invalid language %q: %w", code, err)
		}
		c.Languages[i] = normalized
	}

	if c.Default == "" {
		c.Default = c.Languages[0]
	}
	normalized, err := lang.Normalize(c.Default)
	if err != nil {
		return fmt.Errorf("translation config: invalid default language %q: %w", c.Default, err)
	}
	c.Default = normalized

	if !slices.Contains(c.Languages, c.Default) {
		return fmt.Errorf("translation config: default language %q is not in the configured languages", c.Default)
	}

	return nil
}

// Active resolves the language to operate under for the supplied ambient
// code: a zero code or a code outside the configured set falls back to the
// default language.
func (c *Config) Active(code lang.Code) lang.Code {
	if code == "" || !slices.Contains(c.Languages, code) {
		return c.Default
	}
	return code
}
