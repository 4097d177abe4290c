package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// AddFlagValidation checks every value given for the named flag before it is
// stored, so bad input is reported while the command line is parsed.
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateChoice returns a validator accepting only the listed values.
func ValidateChoice(what string, choices ...string) func(string) error {
	return func(value string) error {
		for _, choice := range choices {
			if value == choice {
				return nil
			}
		}
		return fmt.Errorf("invalid %s %q, must be one of: %s", what, value, strings.Join(choices, ", "))
	}
}

// ValidateJSONObject accepts an empty string, an @file reference, or an
// inline JSON object.
func ValidateJSONObject(value string) error {
	if value == "" || strings.HasPrefix(value, "@") {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err != nil {
		return fmt.Errorf("invalid JSON object: %w", err)
	}
	return nil
}

// ParseData parses render data given inline as a JSON object or as @file.
// Files ending in .yml or .yaml are read as YAML, anything else as JSON.
// An empty value yields nil data.
func ParseData(value string) (map[string]any, error) {
	if value == "" {
		return nil, nil
	}

	var data map[string]any

	if filename, ok := strings.CutPrefix(value, "@"); ok {
		content, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file %s: %w", filename, err)
		}

		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yml", ".yaml":
			err = yaml.Unmarshal(content, &data)
		default:
			err = json.Unmarshal(content, &data)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid data in %s: %w", filename, err)
		}
		if data == nil {
			data = map[string]any{}
		}
		return data, nil
	}

	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON in data: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("invalid JSON in data: expected an object")
	}
	return data, nil
}
