package fs

import (
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFactory(t *testing.T) {
	factory := NewDefaultFactory()
	require.NotNil(t, factory)

	_, ok := factory.Production().(*afero.OsFs)
	assert.True(t, ok, "production filesystem should be *afero.OsFs")

	_, ok = factory.Memory().(*afero.MemMapFs)
	assert.True(t, ok, "memory filesystem should be *afero.MemMapFs")
}

func TestMemoryFilesystemIsolation(t *testing.T) {
	factory := NewDefaultFactory()
	memFS1 := factory.Memory()
	memFS2 := factory.Memory()

	require.NoError(t, afero.WriteFile(memFS1, "/test1.txt", []byte("content1"), 0644))

	exists, err := afero.Exists(memFS2, "/test1.txt")
	require.NoError(t, err)
	assert.False(t, exists, "memory filesystems must not share files")
}

func TestWriteAtomic(t *testing.T) {
	memFS := NewDefaultFactory().Memory()

	err := WriteAtomic(memFS, "/out/nested/wave.png", func(w io.Writer) error {
		_, err := w.Write([]byte("png bytes"))
		return err
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(memFS, "/out/nested/wave.png")
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	entries, err := afero.ReadDir(memFS, "/out/nested")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")
}

func TestWriteAtomicKeepsOriginalOnFailure(t *testing.T) {
	memFS := NewDefaultFactory().Memory()
	require.NoError(t, afero.WriteFile(memFS, "/out/wave.png", []byte("old"), 0644))

	boom := errors.New("encode failed")
	err := WriteAtomic(memFS, "/out/wave.png", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := afero.ReadFile(memFS, "/out/wave.png")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := afero.ReadDir(memFS, "/out")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
