package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The in-memory stores mirror the bolt semantics; these tests pin the
// behaviors the vault relies on.

func TestMemUserStore_Basic(t *testing.T) {
	users := NewMemUserStore()

	u := testUser("alice")
	require.NoError(t, users.PutUser(u))

	got, err := users.GetUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	got, err = users.GetUserByName("alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	assert.ErrorIs(t, users.PutUser(testUser("alice")), ErrUserExists)
	assert.ErrorIs(t, users.PutUser(&User{ID: u.ID, Name: "other"}), ErrUserExists)

	_, err = users.GetUser(uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemUserStore_ListOrderedByName(t *testing.T) {
	users := NewMemUserStore()
	require.NoError(t, users.PutUser(testUser("zoe")))
	require.NoError(t, users.PutUser(testUser("amy")))

	all, err := users.ListUsers()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "amy", all[0].Name)
	assert.Equal(t, "zoe", all[1].Name)
}

func TestMemFileStore_Basic(t *testing.T) {
	files := NewMemFileStore()

	owner := uuid.NewString()
	f := testFile(owner, "a.txt")
	require.NoError(t, files.PutFile(f))

	got, err := files.GetFile(f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	require.NoError(t, files.PutFile(testFile(owner, "b.txt")))
	require.NoError(t, files.PutFile(testFile(uuid.NewString(), "c.txt")))

	mine, err := files.ListFilesByOwner(owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a.txt", mine[0].Filename)
	assert.Equal(t, "b.txt", mine[1].Filename)

	require.NoError(t, files.DeleteFile(f.ID))
	_, err = files.GetFile(f.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, files.DeleteFile(f.ID), ErrFileNotFound)
}

func TestMemShareStore_Basic(t *testing.T) {
	shares := NewMemShareStore()

	fileID := uuid.NewString()
	recipient := uuid.NewString()
	sh := testShare(fileID, uuid.NewString(), recipient)
	require.NoError(t, shares.PutShare(sh))

	got, err := shares.GetShare(fileID, recipient)
	require.NoError(t, err)
	assert.Equal(t, sh, got)

	assert.ErrorIs(t, shares.PutShare(sh), ErrShareExists)

	_, err = shares.GetShare(fileID, uuid.NewString())
	assert.ErrorIs(t, err, ErrShareNotFound)

	byFile, err := shares.ListSharesByFile(fileID)
	require.NoError(t, err)
	assert.Len(t, byFile, 1)

	byRecipient, err := shares.ListSharesByRecipient(recipient)
	require.NoError(t, err)
	assert.Len(t, byRecipient, 1)
}

func TestMemStores_NilParams(t *testing.T) {
	assert.ErrorIs(t, NewMemUserStore().PutUser(nil), ErrNilParam)
	assert.ErrorIs(t, NewMemFileStore().PutFile(nil), ErrNilParam)
	assert.ErrorIs(t, NewMemShareStore().PutShare(nil), ErrNilParam)
}
