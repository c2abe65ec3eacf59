// Package category assigns expense categories from free-text descriptions.
package category

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Others is the label returned when no keyword matches.
const Others = "Others"

// Rule maps a category label to its trigger keywords.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// File is the YAML layout accepted by LoadFile.
type File struct {
	Categories []Rule `yaml:"categories"`
	Default    string `yaml:"default"`
}

// DefaultRules is the built-in category table. Order matters: the first match wins.
var DefaultRules = []Rule{
	{Name: "Food", Keywords: []string{"food", "restaurant", "pizza", "burger", "coffee", "dinner"}},
	{Name: "Transport", Keywords: []string{"uber", "bus", "metro", "train", "cab", "fuel", "petrol"}},
	{Name: "Entertainment", Keywords: []string{"netflix", "movie", "concert", "game", "music", "fun"}},
	{Name: "Shopping", Keywords: []string{"amazon", "flipkart", "clothes", "grocery", "mall"}},
	{Name: "Bills", Keywords: []string{"electricity", "wifi", "rent", "mobile recharge", "gas"}},
	{Name: "Health", Keywords: []string{"doctor", "hospital", "medicines", "gym", "yoga"}},
}

// Word boundaries over Unicode letters and digits, so "cafébus" does not contain "bus".
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:[^\p{L}\p{N}_]|$)`
)

type compiledRule struct {
	name     string
	patterns []*regexp.Regexp
}

// Categorizer matches descriptions against an ordered rule table.
type Categorizer struct {
	rules    []compiledRule
	fallback string
}

// New compiles rules into a Categorizer. An empty fallback means Others.
func New(rules []Rule, fallback string) (*Categorizer, error) {
	if fallback == "" {
		fallback = Others
	}
	c := &Categorizer{fallback: fallback}
	for i, r := range rules {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("rule %d: empty category name", i)
		}
		cr := compiledRule{name: name}
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			re, err := regexp.Compile(wordStart + regexp.QuoteMeta(kw) + wordEnd)
			if err != nil {
				return nil, fmt.Errorf("rule %q keyword %q: %w", name, kw, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Default returns a Categorizer over DefaultRules.
func Default() *Categorizer {
	c, err := New(DefaultRules, Others)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCategorizer = Default()

// Categorize classifies description with the built-in table.
func Categorize(description string) string {
	return defaultCategorizer.Categorize(description)
}

// Categorize returns the first category with a whole-word keyword match, or the fallback.
func (c *Categorizer) Categorize(description string) string {
	description = strings.ToLower(description)
	for _, r := range c.rules {
		for _, re := range r.patterns {
			if re.MatchString(description) {
				return r.name
			}
		}
	}
	return c.fallback
}

// Names lists the category labels in match order, fallback last.
func (c *Categorizer) Names() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		if r.name == c.fallback {
			continue
		}
		names = append(names, r.name)
	}
	return append(names, c.fallback)
}

// LoadFile builds a Categorizer from a YAML rule file.
func LoadFile(path string) (*Categorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, errors.New("categories file defines no categories")
	}
	return New(f.Categories, f.Default)
}
