package local

import (
	"github.com/iamvkosarev/mednote/pkg/logging"
)

// Catalog is the static key to TextSet table used by every screen.
type Catalog struct {
	sets   map[string]TextSet
	logger *logging.Logger
}

func NewCatalog(logger *logging.Logger) *Catalog {
	return NewCatalogWithSets(uiTranslations, logger)
}

func NewCatalogWithSets(sets map[string]TextSet, logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.Default()
	}
	return &Catalog{
		sets:   sets,
		logger: logger,
	}
}

// Translate returns the text for key in language, falling back to the primary
// language, and to the key itself when the key is unknown.
func (c *Catalog) Translate(key string, language Language) string {
	set, ok := c.sets[key]
	if !ok {
		c.logger.Warn("translation key not found", "key", key)
		return key
	}
	return set.Text(language)
}

// Format translates key and fills its verbs with a.
func (c *Catalog) Format(key string, language Language, a ...any) string {
	set, ok := c.sets[key]
	if !ok {
		c.logger.Warn("translation key not found", "key", key)
		return key
	}
	return set.Format(language, a...)
}

// Count formats n with oneKey when n is 1 and manyKey otherwise.
func (c *Catalog) Count(n int, oneKey, manyKey string, language Language) string {
	if n == 1 {
		return c.Format(oneKey, language, n)
	}
	return c.Format(manyKey, language, n)
}
