package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_RejectsWrongKeySize(t *testing.T) {
	_, err := NewStore([]byte("too-short"))
	assert.Error(t, err)
}

func TestNewStoreFromPassphrase_RejectsEmpty(t *testing.T) {
	_, err := NewStoreFromPassphrase("")
	assert.Error(t, err)
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s, err := NewStoreFromPassphrase("correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, s.Set("ocr_token", []byte("secret-ocr-value")))
	got, err := s.Get("ocr_token")
	require.NoError(t, err)
	assert.Equal(t, "secret-ocr-value", got)
}

func TestStore_GetUnknownNameErrors(t *testing.T) {
	s, err := NewStoreFromPassphrase("passphrase")
	require.NoError(t, err)

	_, err = s.Get("delivery_token")
	assert.Error(t, err)
}

func TestStore_SetRejectsEmptyName(t *testing.T) {
	s, err := NewStoreFromPassphrase("passphrase")
	require.NoError(t, err)

	assert.Error(t, s.Set("", []byte("v")))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	s, err := NewStoreFromPassphrase("fleet-wide-passphrase")
	require.NoError(t, err)
	require.NoError(t, s.Set("external_model_token", []byte("sk-abc123")))
	require.NoError(t, s.Set("delivery_token", []byte("dl-xyz789")))
	require.NoError(t, s.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	key := s.key
	loaded, err := Load(path, key)
	require.NoError(t, err)

	got, err := loaded.Get("external_model_token")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc123", got)

	got, err = loaded.Get("delivery_token")
	require.NoError(t, err)
	assert.Equal(t, "dl-xyz789", got)
}

func TestStore_LoadWithWrongKeyFailsDecrypt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	s, err := NewStoreFromPassphrase("right-passphrase")
	require.NoError(t, err)
	require.NoError(t, s.Set("ocr_token", []byte("value")))
	require.NoError(t, s.Save(path))

	wrong, err := NewStoreFromPassphrase("wrong-passphrase")
	require.NoError(t, err)
	loaded, err := Load(path, wrong.key)
	require.NoError(t, err)

	_, err = loaded.Get("ocr_token")
	assert.Error(t, err)
}

func TestLoadFromPassphrase_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	s, err := NewStoreFromPassphrase("fleet-wide-passphrase")
	require.NoError(t, err)
	require.NoError(t, s.Set("delivery_token", []byte("dl-xyz789")))
	require.NoError(t, s.Save(path))

	loaded, err := LoadFromPassphrase(path, "fleet-wide-passphrase")
	require.NoError(t, err)
	got, err := loaded.Get("delivery_token")
	require.NoError(t, err)
	assert.Equal(t, "dl-xyz789", got)
}

func TestLoadFromPassphrase_RejectsEmptyPassphrase(t *testing.T) {
	_, err := LoadFromPassphrase("/nonexistent", "")
	assert.Error(t, err)
}

func TestStore_CiphertextVariesAcrossCalls(t *testing.T) {
	s, err := NewStoreFromPassphrase("passphrase")
	require.NoError(t, err)

	require.NoError(t, s.Set("a", []byte("same-plaintext")))
	first := append([]byte(nil), s.credentials["a"]...)
	require.NoError(t, s.Set("a", []byte("same-plaintext")))
	second := s.credentials["a"]

	assert.NotEqual(t, first, second, "GCM nonce should differ per encryption")
}
