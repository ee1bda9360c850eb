package kvconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[server]
web_client = "console"

[logging]
logfile = "/var/log/kvtoolkit.log"
max_size = 500
max_age = 30

[store.primary]
engine = "memkv"

[store.archive]
engine = "boltkv"
path = "archive.db"
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSampleConfig(t)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "console", cfg.Server.WebClient)
	assert.Equal(t, "/var/log/kvtoolkit.log", cfg.Logging.Logfile)
	assert.Equal(t, 500, cfg.Logging.MaxSize)
	assert.Equal(t, 30, cfg.Logging.MaxAge)

	require.Contains(t, cfg.Store, "primary")
	assert.Equal(t, "memkv", cfg.Store["primary"].Engine)
	require.Contains(t, cfg.Store, "archive")
	assert.Equal(t, "boltkv", cfg.Store["archive"].Engine)
	assert.Equal(t, "archive.db", cfg.Store["archive"].Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	assert.Error(t, err)
}

func TestConvertPathsToAbsolute(t *testing.T) {
	var c Config
	c.Server.WebClient = "console"
	c.Logging.Logfile = "./foobar.log"
	c.Store = map[string]StoreConfig{
		"foo": {Engine: "boltkv", Path: "foo-storage-db"},
		"bar": {Engine: "boltkv", Path: "/tmp/bar-storage-db"},
	}

	c.ConvertPathsToAbsolute("/tmp/kvtoolkit-configs/myconfig.toml")

	assert.Equal(t, "/tmp/kvtoolkit-configs/console", c.Server.WebClient)
	assert.Equal(t, "/tmp/kvtoolkit-configs/foobar.log", c.Logging.Logfile)
	assert.Equal(t, "/tmp/kvtoolkit-configs/foo-storage-db", c.Store["foo"].Path)
	assert.Equal(t, "boltkv", c.Store["foo"].Engine)
	assert.Equal(t, "/tmp/bar-storage-db", c.Store["bar"].Path)
}

func TestOpenStoreMemkv(t *testing.T) {
	cfg := &Config{Store: map[string]StoreConfig{"primary": {Engine: "memkv"}}}
	backend, err := cfg.OpenStore("primary")
	require.NoError(t, err)
	require.NoError(t, backend.Put([]byte("k"), []byte("v")))
}

func TestOpenStoreBoltkv(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Store: map[string]StoreConfig{
		"archive": {Engine: "boltkv", Path: filepath.Join(dir, "archive.db")},
	}}
	backend, err := cfg.OpenStore("archive")
	require.NoError(t, err)
	require.NoError(t, backend.Put([]byte("k"), []byte("v")))
}

func TestOpenStoreUnknownAlias(t *testing.T) {
	cfg := &Config{Store: map[string]StoreConfig{}}
	_, err := cfg.OpenStore("missing")
	assert.Error(t, err)
}

func TestOpenStoreUnknownEngine(t *testing.T) {
	cfg := &Config{Store: map[string]StoreConfig{"x": {Engine: "redis"}}}
	_, err := cfg.OpenStore("x")
	assert.Error(t, err)
}
