package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "addr: {{.DETECTOR_ADDR}}",
			env:   map[string]string{"DETECTOR_ADDR": "detector:50061"},
			want:  "addr: detector:50061",
		},
		{
			name:  "shell-style variables are not expanded",
			input: "addr: ${DETECTOR_ADDR}",
			env:   map[string]string{"DETECTOR_ADDR": "detector:50061"},
			want:  "addr: ${DETECTOR_ADDR}",
		},
		{
			name:  "missing variable expands to empty",
			input: "http_addr: {{.MISSING_PORT}}",
			want:  "http_addr: ",
		},
		{
			name:  "value containing equals sign",
			input: "token: {{.TOKEN}}",
			env:   map[string]string{"TOKEN": "a=b=c"},
			want:  "token: a=b=c",
		},
		{
			name:  "list entries",
			input: "categories:\n  - {{.CAT1}}\n  - {{.CAT2}}",
			env:   map[string]string{"CAT1": "email", "CAT2": "ssn"},
			want:  "categories:\n  - email\n  - ssn",
		},
		{
			name:  "malformed template returned as is",
			input: "addr: {{.UNCLOSED",
			want:  "addr: {{.UNCLOSED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, string(ExpandEnv([]byte(tt.input))))
		})
	}
}

func TestExpandEnvFeedsYAML(t *testing.T) {
	t.Setenv("DOCMASK_WORKERS", "3")

	var out struct {
		Processing struct {
			WorkerCount int `yaml:"worker_count"`
		} `yaml:"processing"`
	}
	data := ExpandEnv([]byte("processing:\n  worker_count: {{.DOCMASK_WORKERS}}\n"))
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, 3, out.Processing.WorkerCount)
}

func TestExpandEnvEmptyInput(t *testing.T) {
	assert.Empty(t, ExpandEnv(nil))
}
