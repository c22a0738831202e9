package hid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeyStore(t *testing.T) {
	s := NewMemoryKeyStore()

	_, err := s.Load("aa:bb:cc:dd:ee:ff")
	assert.Equal(t, ErrNoSecret, err)

	require.NoError(t, s.Save("aa:bb:cc:dd:ee:ff", []byte{1, 2, 3}))
	got, err := s.Load("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	// The store keeps its own copy.
	got[0] = 0xff
	got, err = s.Load("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	require.NoError(t, s.Delete("aa:bb:cc:dd:ee:ff"))
	_, err = s.Load("aa:bb:cc:dd:ee:ff")
	assert.Equal(t, ErrNoSecret, err)

	require.NoError(t, s.Delete("aa:bb:cc:dd:ee:ff"))
}

func TestFileKeyStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")

	s := NewFileKeyStore(path)
	require.NoError(t, s.Save("peer-a", []byte{0xde, 0xad}))
	require.NoError(t, s.Save("peer-b", []byte{0xbe, 0xef}))
	require.NoError(t, s.Delete("peer-b"))

	// A fresh store reads back what the first one flushed.
	s2 := NewFileKeyStore(path)
	got, err := s2.Load("peer-a")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, got)
	_, err = s2.Load("peer-b")
	assert.Equal(t, ErrNoSecret, err)
}

func TestFileKeyStoreMissingFile(t *testing.T) {
	s := NewFileKeyStore(filepath.Join(t.TempDir(), "absent.json"))
	_, err := s.Load("peer")
	assert.Equal(t, ErrNoSecret, err)
}

func TestFileKeyStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	// Corruption degrades to an empty store, never an error.
	s := NewFileKeyStore(path)
	_, err := s.Load("peer")
	assert.Equal(t, ErrNoSecret, err)

	require.NoError(t, s.Save("peer", []byte{1}))
	got, err := NewFileKeyStore(path).Load("peer")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, got)
}

func TestFileKeyStoreCorruptEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"peer":"***"}`), 0600))

	s := NewFileKeyStore(path)
	_, err := s.Load("peer")
	assert.Equal(t, ErrNoSecret, err)
}
