// Package props loads the flat property map that drives catalog discovery.
// Properties can come from the process environment, a YAML file, or an AWS
// SSM parameter path; sources are merged with later sources winning.
package props

import (
	"os"
	"strings"
)

// FromEnv returns the process environment as a property map. Keys that are
// not catalog properties are harmless: discovery only looks at "default" and
// keys ending in "_connection_string".
func FromEnv() map[string]string {
	environ := os.Environ()
	properties := make(map[string]string, len(environ))

	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		properties[parts[0]] = parts[1]
	}

	return properties
}

// Merge combines property maps. Later maps override earlier ones, so callers
// list sources in ascending precedence.
func Merge(sources ...map[string]string) map[string]string {
	merged := make(map[string]string)

	for _, source := range sources {
		for key, value := range source {
			merged[key] = value
		}
	}

	return merged
}
