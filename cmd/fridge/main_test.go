package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fridge-monitor/pkg/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func run(t *testing.T, stdin string, args ...string) (int, envelope) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)

	var env envelope
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &env), "stdout: %s", stdout.String())
	return code, env
}

func TestScanInListsItems(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)

	code, env := run(t, "", "scan-in", "photo.jpg", "--image-url", "file:///tmp/photo.jpg")
	require.Equal(t, 0, code)
	require.Nil(t, env.Error)

	var result struct {
		Event struct {
			Type     string `json:"type"`
			ImageURL string `json:"imageUrl"`
		} `json:"event"`
		CreatedItems []struct {
			Label string `json:"label"`
		} `json:"createdItems"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, "IN", result.Event.Type)
	require.Equal(t, "file:///tmp/photo.jpg", result.Event.ImageURL)
	require.Len(t, result.CreatedItems, 3)
}

func TestUnknownItemExitsNotFound(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)

	code, env := run(t, "", "item", "missing")
	require.Equal(t, 3, code)
	require.NotNil(t, env.Error)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestPatchReadsStdin(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)

	code, env := run(t, `{"bogus":true}`, "patch", "any", "-")
	require.Equal(t, 2, code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestSettingsSetRejectsNegativeDays(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)

	code, env := run(t, "", "settings", "set", `{"produce":-1,"other":14}`)
	require.Equal(t, 2, code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestSettingsSetReplacesTable(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)

	code, env := run(t, "", "settings", "set", `{"Produce":3,"other":10}`)
	require.Equal(t, 0, code)

	var saved map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	require.Equal(t, map[string]int{"produce": 3, "other": 10}, saved)
}

func TestMacrosGetFallsBackToDefault(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)

	code, env := run(t, "", "macros", "get", "Eggs")
	require.Equal(t, 0, code)

	var view macroView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Equal(t, "eggs", view.Label)
	require.NotNil(t, view.Macros)
	require.False(t, view.Overridden)
}

func TestRecommendRejectsCoverageAboveOne(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)

	code, env := run(t, "", "recommend", "--min-coverage", "1.5")
	require.Equal(t, 2, code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestImageWorksWithoutStore(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, "mongo")

	code, env := run(t, "", "image", "Tomato")
	require.Equal(t, 0, code)
	require.JSONEq(t, `{"key":"tomato","path":"/images/tomato.png"}`, string(env.Data))

	code, env = run(t, "", "image", "durian")
	require.Equal(t, 3, code)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestArgumentErrorsAreValidation(t *testing.T) {
	code, env := run(t, "", "item")
	require.Equal(t, 2, code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestBadConfigurationIsValidation(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, "mongo")

	code, env := run(t, "", "items")
	require.Equal(t, 2, code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}
