package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("GOYAVE_ENV", "")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(context.Background(), args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	t.Run("all_valid", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", "sam@rmcreative.ru", "5011@gmail.com")
		assert.Equal(t, exitValid, code)
		assert.Equal(t, "1: valid\n2: valid\n", stdout)
	})

	t.Run("invalid", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", "sam@rmcreative.ru", "test@example")
		assert.Equal(t, exitInvalid, code)
		assert.Equal(t, "1: valid\n2: invalid (syntax) The email address must be a valid email address.\n", stdout)
	})

	t.Run("too_long", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", strings.Repeat("a", 65)+"@gmail.com")
		assert.Equal(t, exitInvalid, code)
		assert.Equal(t, "1: invalid (too_long) The email address is too long to be an email address.\n", stdout)
	})

	t.Run("stdin", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "sam@rmcreative.ru\r\n\ninfo@örtliches.de\n")
		assert.Equal(t, exitInvalid, code)
		assert.Equal(t, "1: valid\n3: invalid (syntax) The email address must be a valid email address.\n", stdout)
	})

	t.Run("idn", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", "--idn", "info@örtliches.de")
		assert.Equal(t, exitValid, code)
		assert.Equal(t, "1: valid\n", stdout)
	})

	t.Run("allow_name", func(t *testing.T) {
		code, _, _ := runCLI(t, "", "Carsten Brandt <mail@cebe.cc>")
		assert.Equal(t, exitInvalid, code)

		code, _, _ = runCLI(t, "", "--allow-name", "Carsten Brandt <mail@cebe.cc>")
		assert.Equal(t, exitValid, code)
	})

	t.Run("json", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", "--json", "sam@rmcreative.ru", "rmcreative.ru")
		assert.Equal(t, exitInvalid, code)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 2)

		var first, second map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
		assert.Equal(t, map[string]any{
			"address": "sam@rmcreative.ru",
			"valid":   true,
			"reason":  "valid",
			"message": "",
		}, first)
		assert.Equal(t, map[string]any{
			"address": "rmcreative.ru",
			"valid":   false,
			"reason":  "syntax",
			"message": "The email address must be a valid email address.",
		}, second)
	})

	t.Run("client_options", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", "--client-options", "--allow-name")
		assert.Equal(t, exitValid, code)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
		assert.Equal(t, true, payload["allowName"])
		assert.Equal(t, false, payload["enableIDN"])
		assert.Equal(t, true, payload["skipOnEmpty"])
		assert.Equal(t, "The email address must be a valid email address.", payload["message"])
		assert.NotContains(t, payload, "idnPattern")
		assert.Contains(t, payload, "pattern")
		assert.Contains(t, payload, "fullPattern")
	})

	t.Run("help", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", "--help")
		assert.Equal(t, exitValid, code)
		assert.Contains(t, stderr, "--check-dns")
	})

	t.Run("unknown_flag", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", "--unknown")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "unknown flag")
	})

	t.Run("missing_config_file", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "config.json"), "sam@rmcreative.ru")
		assert.Equal(t, exitError, code)
		assert.NotEmpty(t, stderr)
	})

	t.Run("missing_env_file", func(t *testing.T) {
		code, _, _ := runCLI(t, "", "--env-file", filepath.Join(t.TempDir(), ".env"), "sam@rmcreative.ru")
		assert.Equal(t, exitError, code)
	})

	t.Run("invalid_timeout", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", "--check-dns", "--timeout", "0", "sam@rmcreative.ru")
		assert.Equal(t, exitError, code)
		assert.NotEmpty(t, stderr)
	})
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("MAILCHECK_TEST_ALLOW_NAME=true\n"), 0o600))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"validation": {
			"email": {
				"allowName": "${MAILCHECK_TEST_ALLOW_NAME}",
				"message": "Invalid :field."
			}
		}
	}`), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("MAILCHECK_TEST_ALLOW_NAME")
	})

	code, stdout, stderr := runCLI(t, "", "--config", cfgPath, "--env-file", envPath, "--client-options")
	require.Equal(t, exitValid, code, stderr)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, true, payload["allowName"])
	assert.Equal(t, "Invalid email address.", payload["message"])
}

func TestRunLangDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fr-FR"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr-FR", "locale.json"), []byte(`{"check.valid": "valide", "check.invalid": "invalide"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr-FR", "rules.json"), []byte(`{"email.syntax": "Le champ :field doit être une adresse email valide."}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fr-FR", "fields.json"), []byte(`{"email": "adresse email"}`), 0o600))

	code, stdout, _ := runCLI(t, "", "--lang-dir", dir, "--lang", "fr-FR", "sam@rmcreative.ru", "test@example")
	assert.Equal(t, exitInvalid, code)
	assert.Equal(t, "1: valide\n2: invalide (syntax) Le champ adresse email doit être une adresse email valide.\n", stdout)
}
