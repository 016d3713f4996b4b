package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	key := []byte("escrow/deal/0")
	value := []byte(`{"id":0}`)

	_, err := db.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)

	ok, err := db.Has(key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put(key, value))

	got, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, got)

	ok, err = db.Has(key)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte("original")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'X'

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)

	require.NoError(t, db1.Put([]byte("escrow/nextid"), []byte("7")))
	require.NoError(t, db1.Close())

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("escrow/nextid"))
	require.NoError(t, err)
	require.Equal(t, []byte("7"), got)

	_, err = db2.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}
