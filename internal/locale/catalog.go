package locale

import (
	"embed"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var messagesFS embed.FS

// Catalog maps dotted keys ("contact.success") to translated text per locale.
type Catalog struct {
	messages map[Locale]map[string]string
}

// LoadCatalog reads the embedded message files for every supported locale.
func LoadCatalog() (*Catalog, error) {
	c := &Catalog{messages: make(map[Locale]map[string]string, len(Supported))}

	for _, l := range Supported {
		raw, err := messagesFS.ReadFile(path.Join("messages", l.String()+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s messages: %w", l, err)
		}

		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse %s messages: %w", l, err)
		}

		flat := make(map[string]string)
		flatten("", tree, flat)
		c.messages[l] = flat
	}

	return c, nil
}

// MustLoadCatalog is LoadCatalog for package initialization and tests.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// T returns the text for key in l, falling back to English and then to the key itself.
func (c *Catalog) T(l Locale, key string) string {
	if msg, ok := c.messages[l][key]; ok {
		return msg
	}
	if msg, ok := c.messages[Default][key]; ok {
		return msg
	}
	return key
}

// Has reports whether l defines key without falling back.
func (c *Catalog) Has(l Locale, key string) bool {
	_, ok := c.messages[l][key]
	return ok
}

// Keys returns every key defined for l.
func (c *Catalog) Keys(l Locale) []string {
	keys := make([]string, 0, len(c.messages[l]))
	for k := range c.messages[l] {
		keys = append(keys, k)
	}
	return keys
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
