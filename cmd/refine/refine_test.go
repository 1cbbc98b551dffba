package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.js")
	require.NoError(t, os.WriteFile(path, []byte("var x = 1; if (x == 1) { eval(y); }"), 0o600))

	out, err := run(t, "", "analyze", path, "--format", "json")
	require.NoError(t, err)

	var res review.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, review.SourceHeuristic, res.Source)
	assert.Equal(t, "let x = 1; if (x === 1) { Function(y); }", res.RewrittenCode)
}

func TestAnalyze_StdinSARIF(t *testing.T) {
	out, err := run(t, `password = "hunter2"; print(password)`, "analyze", "-", "--lang", "py", "--format", "sarif")
	require.NoError(t, err)

	assert.Contains(t, out, `"version": "2.1.0"`)
	assert.Contains(t, out, "coderefine/security")
	assert.Contains(t, out, `"uri": "stdin"`)
}

func TestAnalyze_TextFixMode(t *testing.T) {
	out, err := run(t, "try:\n    go()\nexcept:\n    pass\n", "analyze", "-", "--lang", "python", "--mode", "fix", "--strategy", "local")
	require.NoError(t, err)

	assert.Contains(t, out, "Bugs (1)")
	assert.Contains(t, out, "Source: heuristic")
	assert.Contains(t, out, "except Exception:")
}

func TestAnalyze_Errors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unknown, []byte("some longer text here"), 0o600))

	tests := map[string][]string{
		"no language":  {"analyze", unknown},
		"missing file": {"analyze", filepath.Join(dir, "nope.py")},
		"bad format":   {"analyze", unknown, "--lang", "text", "--format", "xml"},
		"too short":    {"analyze", "-", "--lang", "js"},
		"bad strategy": {"analyze", unknown, "--lang", "text", "--strategy", "sometimes"},
		"model only":   {"analyze", unknown, "--lang", "text", "--strategy", "model"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, "x=1", args...)
			assert.Error(t, err)
		})
	}
}

func TestLanguagesAndVersion(t *testing.T) {
	out, err := run(t, "", "languages")
	require.NoError(t, err)
	assert.Equal(t, "python\njavascript\ntypescript\njava\nc++\nhtml\ncss\n", out)

	out, err = run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "refine dev"))
}

func TestDetectLanguage(t *testing.T) {
	for path, want := range map[string]review.Language{
		"a/b/Main.JAVA": review.LanguageJava,
		"x.tsx":         review.LanguageTypeScript,
		"lib.hpp":       review.LanguageCPP,
	} {
		got, err := detectLanguage("", path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}
	got, err := detectLanguage("TS", "ignored.py")
	require.NoError(t, err)
	assert.Equal(t, review.LanguageTypeScript, got)
}
