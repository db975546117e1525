package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shamaton/msgpack/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestYAML = `library: ./lib/libtesting.so
config:
  encoding: latin1
  callbacks:
    queue_size: 4
symbols:
  add:
    args: [int32_t, int32_t]
    returns: int32_t
  version:
    returns: cstring
`

func TestLoadManifestYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lib", "libtesting.so"), m.Library)
	assert.Equal(t, "latin1", m.Config.Encoding)
	assert.Equal(t, BackendNative, m.Config.Backend)
	assert.Equal(t, 4, m.Config.Callbacks.QueueSize)
	assert.Equal(t, Symbol{Args: []string{"int32_t", "int32_t"}, Returns: "int32_t"}, m.Symbols["add"])
	assert.Equal(t, Symbol{Returns: "cstring"}, m.Symbols["version"])
}

func TestLoadManifestJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libc.json")
	data := `{"library":"libc.so.6","symbols":{"strlen":{"args":["ptr"],"returns":"usize"}}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "libc.so.6", m.Library, "bare names are left to the loader's search path")
	assert.Equal(t, DefaultCallbackQueueSize, m.Config.Callbacks.QueueSize)
}

func TestParseManifestMsgpack(t *testing.T) {
	in := Manifest{
		Library: "/opt/lib/libm.so",
		Config:  Config{Backend: BackendNative, Callbacks: CallbackConfig{QueueSize: 2}},
		Symbols: map[string]Symbol{"cos": NewSymbol(Double, Double)},
	}
	bz, err := msgpack.Marshal(in)
	require.NoError(t, err)

	out, err := ParseManifest(bz, ".msgpack")
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestParseManifestErrors(t *testing.T) {
	_, err := ParseManifest([]byte("{}"), ".toml")
	require.ErrorContains(t, err, "unknown manifest format")

	_, err = ParseManifest([]byte("library: [\n"), ".yml")
	require.ErrorContains(t, err, "decode manifest")

	_, err = ParseManifest([]byte(`{"symbols":{"f":{"args":["wat"]}}}`), ".json")
	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "wat", be.Tag)

	_, err = ParseManifest([]byte(`{"config":{"backend":"jvm"}}`), ".JSON")
	require.ErrorContains(t, err, "unknown backend")

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read manifest")
}
