package yamlutil

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalStrict unmarshals YAML data with strict field checking enabled.
// Unknown fields in the YAML will cause an error, helping catch typos and configuration mistakes.
func UnmarshalStrict(data []byte, v interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(v)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "field") && strings.Contains(errStr, "not found") {
			return fmt.Errorf("unknown configuration field (check for typos): %w", err)
		}
		return err
	}

	return nil
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} references using lookup.
// Unset variables without a default expand to an empty string.
// A nil lookup uses the process environment.
func ExpandEnv(data []byte, lookup func(string) (string, bool)) []byte {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return envRefPattern.ReplaceAllFunc(data, func(ref []byte) []byte {
		m := envRefPattern.FindSubmatch(ref)
		if value, ok := lookup(string(m[1])); ok && value != "" {
			return []byte(value)
		}
		return m[2]
	})
}

// UnmarshalStrictEnv expands environment references and then decodes strictly
func UnmarshalStrictEnv(data []byte, v interface{}, lookup func(string) (string, bool)) error {
	return UnmarshalStrict(ExpandEnv(data, lookup), v)
}
