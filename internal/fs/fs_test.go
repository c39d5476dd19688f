package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "indexes")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "IDX-000001.qbi")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.Equal(t, fpath, f.Name())

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	renamed := filepath.Join(dir, "IDX-000002.qbi")
	require.NoError(t, lfs.Rename(fpath, renamed))

	data, err := os.ReadFile(renamed)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, lfs.Remove(renamed))
	_, err = os.Stat(renamed)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_Write(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("faulty.txt", Fault{FailAfterBytes: 5})

	f, err := ffs.OpenFile(filepath.Join(tmp, "faulty.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.Write([]byte("!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)
}

func TestFaultyFS_SyncCloseRename(t *testing.T) {
	tmp := t.TempDir()
	boom := os.ErrPermission

	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("sync.txt", Fault{FailAfterBytes: -1, FailOnSync: true, Err: boom})
	ffs.AddRule("close.txt", Fault{FailAfterBytes: -1, FailOnClose: true})
	ffs.AddRule("target.txt", Fault{FailAfterBytes: -1, FailOnRename: true})

	f, err := ffs.OpenFile(filepath.Join(tmp, "sync.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), boom)
	require.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(tmp, "close.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Close(), ErrInjected)

	src := filepath.Join(tmp, "sync.txt")
	assert.ErrorIs(t, ffs.Rename(src, filepath.Join(tmp, "target.txt")), ErrInjected)
	require.NoError(t, ffs.Rename(src, filepath.Join(tmp, "other.txt")))

	ffs.Reset()
	f, err = ffs.OpenFile(filepath.Join(tmp, "sync.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())
}
