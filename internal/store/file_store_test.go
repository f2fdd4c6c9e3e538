package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
)

func TestFileStoreRoundTrip(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Set(KeyAuthToken, "tok-1"))
	require.NoError(t, st.Set(KeyAuthUser, `{"id":"u1"}`))

	token, err := st.Get(KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, st.Delete(KeyAuthToken))
	_, err = st.Get(KeyAuthToken)
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	// Deleting one key leaves the other intact.
	user, err := st.Get(KeyAuthUser)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, user)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Get(KeyAuthToken)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestFileStoreCorruptedFileIsClassified(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFileName), []byte("{broken"), 0o600))

	_, err = st.Get(KeyAuthToken)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCorruptedState.Code, apperrors.FromError(err).Code)

	// Writing recovers by starting over.
	require.NoError(t, st.Set(KeyAuthToken, "tok-2"))
	token, err := st.Get(KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
}

func TestFileStorePersistsAcrossHandles(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(KeyAuthToken, "tok-1"))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	token, err := second.Get(KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}
