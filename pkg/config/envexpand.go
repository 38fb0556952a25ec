package config

import "os"

// ExpandEnv expands ${VAR} / $VAR references in raw YAML bytes before
// parsing, so credentials and endpoints can be injected at deploy time
// without templating the YAML file itself.
func ExpandEnv(data []byte) []byte {
	expanded := os.ExpandEnv(string(data))
	return []byte(expanded)
}
