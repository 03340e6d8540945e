package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands environment variables in YAML content using Go templates.
// Uses {{.VAR_NAME}} syntax to avoid collision with $ in regex patterns.
//
// Literal $ characters are left alone.
//
// Examples:
//   - addr: {{.DETECTOR_ADDR}} → value of DETECTOR_ADDR
//   - http_addr: ":{{.PORT}}" → ":8080" when PORT=8080
//
// Missing variables expand to empty string (unless template is malformed).
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		// If template parsing fails, return original data
		// This allows YAML without any template syntax to pass through
		return data
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, environ()); err != nil {
		// If execution fails, return original data
		return data
	}

	return buf.Bytes()
}

// environ returns the process environment as a map. Values may contain '='.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
