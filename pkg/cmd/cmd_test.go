package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/docmask/pkg/api"
	"github.com/codeready-toolchain/docmask/pkg/extract"
)

// run executes the root command with an empty config directory and returns stdout.
func run(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config-dir", configDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestClassifyCmd(t *testing.T) {
	out, err := run(t, t.TempDir(), "classify", "john.doe@example.com", "123-45-6789", "Confidential")
	require.NoError(t, err)
	assert.Equal(t,
		"john.doe@example.com\temail\tj*******@example.com\n"+
			"123-45-6789\tssn\t***-**-6789\n"+
			"Confidential\tnone\n", out)

	t.Run("categories flag", func(t *testing.T) {
		out, err := run(t, t.TempDir(), "--categories", "ssn", "classify", "john.doe@example.com")
		require.NoError(t, err)
		assert.Equal(t, "john.doe@example.com\tnone\n", out)
	})

	t.Run("categories from config file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docmask.yaml"), []byte("categories: [phone]\n"), 0o600))
		out, err := run(t, dir, "classify", "123-45-6789", "555-123-4567")
		require.NoError(t, err)
		assert.Equal(t, "123-45-6789\tnone\n555-123-4567\tphone\t***-***-4567\n", out)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := run(t, t.TempDir(), "--categories", "passport", "classify", "x")
		assert.Error(t, err)
	})
}

func TestMaskCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "phone", args: []string{"mask", "-c", "phone", "(555) 123-4567"}, want: "(***) ***-4567\n"},
		{name: "label", args: []string{"mask", "--category", "Credit Card", "4532015112830366"}, want: "************0366\n"},
		{name: "unknown category", args: []string{"mask", "-c", "passport", "x"}, wantErr: true},
		{name: "category required", args: []string{"mask", "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, t.TempDir(), tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRedactTextCmd(t *testing.T) {
	const input = "Contact john.doe@example.com or 555-123-4567.\n"

	t.Run("default output path", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(in, []byte(input), 0o600))

		out, err := run(t, dir, "redact-text", in)
		require.NoError(t, err)

		want := filepath.Join(dir, "notes_redacted.txt")
		assert.Equal(t, want+": 2 redaction(s)\n", out)

		got, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.Equal(t, "Contact j*******@example.com or ***-***-4567.\n", string(got))

		orig, err := os.ReadFile(in)
		require.NoError(t, err)
		assert.Equal(t, input, string(orig), "input must not be modified")
	})

	t.Run("explicit output", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "notes.txt")
		dst := filepath.Join(dir, "clean.txt")
		require.NoError(t, os.WriteFile(in, []byte("SSN 123-45-6789"), 0o600))

		_, err := run(t, dir, "redact-text", in, dst)
		require.NoError(t, err)
		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "SSN ***-**-6789", string(got))
	})

	t.Run("output equal to input", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(in, []byte(input), 0o600))

		_, err := run(t, dir, "redact-text", in, in)
		assert.ErrorIs(t, err, errSameFile)

		orig, err := os.ReadFile(in)
		require.NoError(t, err)
		assert.Equal(t, input, string(orig))
	})

	t.Run("missing input", func(t *testing.T) {
		dir := t.TempDir()
		_, err := run(t, dir, "redact-text", filepath.Join(dir, "absent.txt"))
		assert.Error(t, err)
	})
}

const tokenDocument = `{
  "name": "statement.pdf",
  "pages": [
    {"number": 1, "tokens": [
      [10, 100, 90, 110, "123-45-6789", 0, 0, 0],
      [100, 100, 140, 110, "Important", 0, 0, 1]
    ]},
    {"number": 2, "tokens": [
      [10, 50, 150, 60, "john.doe@example.com", 0, 0, 0]
    ]}
  ]
}`

func TestDirectivesCmd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tokens.json")
	require.NoError(t, os.WriteFile(in, []byte(tokenDocument), 0o600))

	t.Run("default output path", func(t *testing.T) {
		out, err := run(t, dir, "directives", in)
		require.NoError(t, err)

		want := filepath.Join(dir, "tokens_directives.json")
		assert.Equal(t, want+": 2 directive(s) on 2 page(s)\n", out)

		data, err := os.ReadFile(want)
		require.NoError(t, err)
		var resp api.RedactDocumentResponse
		require.NoError(t, json.Unmarshal(data, &resp))
		assert.Equal(t, "statement.pdf", resp.Document)
		assert.Equal(t, map[string]int{"ssn": 1, "email": 1}, resp.Counts)
		require.Len(t, resp.Pages, 2)
		require.Len(t, resp.Pages[0].Render, 1)
		assert.Equal(t, "***-**-6789", resp.Pages[0].Render[0].Text)
	})

	t.Run("stdout", func(t *testing.T) {
		out, err := run(t, dir, "directives", "--stdout", in)
		require.NoError(t, err)

		var resp api.RedactDocumentResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, 2, resp.Total)
		assert.Empty(t, resp.RunID)
	})

	t.Run("unsupported format", func(t *testing.T) {
		txt := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
		_, err := run(t, dir, "directives", txt)
		assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
	})
}

func TestRootFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "invalid log level", args: []string{"--log-level", "loud", "classify", "x"}},
		{name: "invalid log format", args: []string{"--log-format", "xml", "classify", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, t.TempDir(), tt.args...)
			assert.Error(t, err)
		})
	}

	t.Run("version", func(t *testing.T) {
		out, err := run(t, t.TempDir(), "version")
		require.NoError(t, err)
		assert.Contains(t, out, "docmask ")
		assert.Contains(t, out, "Go: go")
	})
}

func TestServeCmdReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = run(t, t.TempDir(), "serve", "--http-addr", ln.Addr().String(), "--grpc-addr", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server")
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in, suffix, ext string
		want            string
	}{
		{in: "notes.txt", suffix: "redacted", want: "notes_redacted.txt"},
		{in: "dir/scan.pdf", suffix: "directives", ext: ".json", want: "dir/scan_directives.json"},
		{in: "README", suffix: "redacted", want: "README_redacted"},
		{in: "a.b.txt", suffix: "redacted", want: "a.b_redacted.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultOutputPath(tt.in, tt.suffix, tt.ext))
		})
	}
}

func TestCheckDistinct(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o600))

	assert.NoError(t, checkDistinct(in, filepath.Join(dir, "out.txt")))
	assert.ErrorIs(t, checkDistinct(in, in), errSameFile)
	assert.ErrorIs(t, checkDistinct(in, filepath.Join(dir, ".", "in.txt")), errSameFile)

	link := filepath.Join(dir, "link.txt")
	if err := os.Link(in, link); err == nil {
		assert.ErrorIs(t, checkDistinct(in, link), errSameFile)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	t.Run("failed write leaves nothing behind", func(t *testing.T) {
		boom := errors.New("boom")
		failed := filepath.Join(dir, "failed.txt")
		err := writeFileAtomic(failed, func(w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoFileExists(t, failed)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".docmask-")
		}
	})
}
