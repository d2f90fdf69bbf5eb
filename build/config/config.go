// Package config loads the converter configuration file.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"moria.us/tenuto/build/tenuto"
)

// DefaultExtension is the extension given to output files.
const DefaultExtension = ".ten"

// A Config contains the converter configuration.
type Config struct {
	// Style is written as the style of every instrument definition.
	Style string `json:"style"`

	// Extension replaces the input file extension to form the output path.
	Extension string `json:"extension"`
}

var safeName = regexp.MustCompile(`^[a-zA-Z0-9]+([-._][a-zA-Z0-9]+)*$`)

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{
		Style:     tenuto.DefaultStyle,
		Extension: DefaultExtension,
	}
}

// Load loads the configuration file with the given name. An empty name
// gives the default configuration. Fields which are missing or invalid are
// reset to their defaults.
func Load(filename string) (*Config, error) {
	c := Default()
	if filename == "" {
		return c, nil
	}
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("invalid config %q: %v", filename, err)
	}
	c.Check(logrus.StandardLogger().WithField("config", filename))
	return c, nil
}

// Check resets invalid fields to their defaults, logging a warning for each.
func (c *Config) Check(log logrus.FieldLogger) {
	if c.Style == "" {
		c.Style = tenuto.DefaultStyle
	} else if !safeName.MatchString(c.Style) {
		log.Warnf("invalid style: %q", c.Style)
		c.Style = tenuto.DefaultStyle
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	} else if !strings.HasPrefix(c.Extension, ".") || !safeName.MatchString(c.Extension[1:]) {
		log.Warnf("invalid extension: %q", c.Extension)
		c.Extension = DefaultExtension
	}
}

// Options returns the conversion options for this configuration.
func (c *Config) Options() tenuto.Options {
	return tenuto.Options{Style: c.Style}
}

// OutputPath returns the default output path for an input file: the same
// path with the extension replaced.
func (c *Config) OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + c.Extension
}
