// FILE: okube-ai/settus/convenience_test.go
package settus_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/okube-ai/settus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("SETTUS_TEST_TOKEN", "from-env")

	var s struct {
		Token string `settus:"name:settus_load_token alias:SETTUS_TEST_TOKEN"`
		Mode  string `settus:"name:settus_load_mode default:dev"`
	}
	res, err := settus.Load(context.Background(), &s, map[string]any{"settus_load_mode": "prod"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.Token)
	assert.Equal(t, "prod", s.Mode)

	debug := res.Debug()
	assert.Contains(t, debug, "settus_load_token: env")
	assert.Contains(t, debug, "settus_load_mode: init")
	assert.NotContains(t, debug, "from-env", "values are never printed")

	t.Run("MustLoadPanics", func(t *testing.T) {
		var bad struct {
			Token string `settus:"name:settus_load_token alias:SETTUS_TEST_TOKEN"`
		}
		assert.Panics(t, func() {
			settus.MustLoad(context.Background(), &bad, map[string]any{"SETTUS_TEST_TOKEN": "x"})
		})
	})
}

func TestResolutionGetters(t *testing.T) {
	res := settus.NewResolution(map[string]any{
		"name":    "svc",
		"port":    "8080",
		"workers": json.Number("4"),
		"ratio":   0.5,
		"debug":   "true",
		"db":      map[string]any{"host": "h", "port": int64(5432)},
		"nothing": nil,
	}, nil)

	str, err := res.String("name")
	require.NoError(t, err)
	assert.Equal(t, "svc", str)

	port, err := res.Int64("port")
	require.NoError(t, err)
	assert.Equal(t, int64(8080), port)

	workers, err := res.Int64("workers")
	require.NoError(t, err)
	assert.Equal(t, int64(4), workers)

	ratio, err := res.Float64("ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	debug, err := res.Bool("debug")
	require.NoError(t, err)
	assert.True(t, debug)

	host, err := res.String("db.host")
	require.NoError(t, err)
	assert.Equal(t, "h", host)

	dbPort, err := res.String("db.port")
	require.NoError(t, err)
	assert.Equal(t, "5432", dbPort)

	empty, err := res.String("nothing")
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	_, err = res.Int64("missing")
	assert.Error(t, err)
	_, err = res.Bool("name")
	assert.Error(t, err)
	_, ok := res.Get("db.host.deeper")
	assert.False(t, ok)
}

func TestResolutionReadOnly(t *testing.T) {
	values := map[string]any{"db": map[string]any{"host": "h"}}
	res := settus.NewResolution(values, map[string]settus.Source{"db": settus.SourceEnv})

	values["db"].(map[string]any)["host"] = "changed"
	res.Values()["db"].(map[string]any)["host"] = "changed"
	res.Origins()["db"] = settus.SourceVault
	nested, _ := res.Get("db")
	nested.(map[string]any)["host"] = "changed"

	host, err := res.String("db.host")
	require.NoError(t, err)
	assert.Equal(t, "h", host)
	origin, _ := res.Origin("db")
	assert.Equal(t, settus.SourceEnv, origin)
}

func TestResolutionExport(t *testing.T) {
	res := settus.NewResolution(map[string]any{
		"token":  "t0k",
		"port":   8080,
		"labels": map[string]any{"team": "core"},
		"mode":   "dev",
	}, map[string]settus.Source{
		"token":  settus.SourceVault,
		"port":   settus.SourceEnv,
		"labels": settus.SourceInit,
		"mode":   settus.SourceDefault,
	})

	t.Run("ExportEnv", func(t *testing.T) {
		env, err := res.ExportEnv("APP_")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"APP_TOKEN":  "t0k",
			"APP_PORT":   "8080",
			"APP_LABELS": `{"team":"core"}`,
		}, env)
	})

	t.Run("WriteDotEnv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, res.WriteDotEnv(path, ""))

		got, err := godotenv.Read(path)
		require.NoError(t, err)
		assert.Equal(t, "t0k", got["TOKEN"])
		assert.Equal(t, `{"team":"core"}`, got["LABELS"])
		assert.NotContains(t, got, "MODE")
	})

	t.Run("Save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "settings.toml")
		require.NoError(t, res.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		var decoded map[string]any
		_, err = toml.DecodeFile(path, &decoded)
		require.NoError(t, err)
		assert.Equal(t, "t0k", decoded["token"])
		assert.Equal(t, int64(8080), decoded["port"])
		assert.Equal(t, map[string]any{"team": "core"}, decoded["labels"])

		matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
		require.NoError(t, err)
		assert.Empty(t, matches, "no temporary files left behind")
	})
}
