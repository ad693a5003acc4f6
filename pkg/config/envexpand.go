package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands environment references in YAML content using Go template
// syntax, {{.VAR_NAME}}. Plain $ is left untouched so regex patterns and
// passwords survive expansion. Missing variables expand to the empty string;
// validation catches required fields left empty. On any template error the
// original bytes pass through unchanged and the YAML parser reports the
// problem instead.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("graphion").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, env); err != nil {
		return data
	}
	return buf.Bytes()
}
