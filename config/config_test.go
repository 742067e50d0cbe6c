package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/docskema/config"
	"github.com/reoring/docskema/dsl"
	"github.com/reoring/docskema/store/memstore"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "docskema.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadKeepsDefaults(t *testing.T) {
	p := writeFile(t, `
store:
  driver: badger
  path: /tmp/data
collection: posts
log:
  level: debug
  format: json
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, config.DriverBadger, cfg.Store.Driver)
	assert.Equal(t, "/tmp/data", cfg.Store.Path)
	assert.Equal(t, "posts", cfg.Collection)
	assert.Equal(t, "_id", cfg.IDField)
	assert.Equal(t, "en", cfg.Lang)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "mongo"
	cfg.Collection = ""
	cfg.Lang = "fr"
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"store.uri", "store.database", "collection", "lang"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	p := writeFile(t, "store:\n  driver: sqlite\n")
	_, err := config.Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	l, err := config.NewLogger(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestOpenStoreMemory(t *testing.T) {
	s, closeFn, err := config.OpenStore(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &memstore.Store{}, s)
}

func TestOpenStoreBadgerInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverBadger
	s, closeFn, err := config.OpenStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NoError(t, closeFn())
}

func TestCheckSchema(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.CheckSchema(dsl.Object().Field("a", dsl.String()).Optional().MustBuild()))

	err := cfg.CheckSchema(dsl.Object().IDField("cid").Field("a", dsl.String()).Optional().MustBuild())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"cid"`)

	cfg.IDField = "cid"
	require.NoError(t, cfg.CheckSchema(dsl.Object().IDField("cid").MustBuild()))
	assert.Error(t, cfg.CheckSchema(dsl.Object().NoID().MustBuild()))
}
