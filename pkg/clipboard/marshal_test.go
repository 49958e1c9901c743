package clipboard_test

import (
	"testing"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/clipboard/clipboardtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allBytes() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestReadHandle(t *testing.T) {
	sys := clipboardtest.New(0xC100)
	sys.Put(clipboard.CF_TEXT, allBytes())
	h, err := sys.Data(clipboard.CF_TEXT)
	require.NoError(t, err)

	data, err := clipboard.ReadHandle(sys, h)
	require.NoError(t, err)
	assert.Equal(t, allBytes(), data)
	assert.Zero(t, sys.LockedBlocks(), "block must be unlocked")
	_, live := sys.Block(h)
	assert.True(t, live, "clipboard blocks are never freed")
}

func TestReadHandle_ZeroSize(t *testing.T) {
	sys := clipboardtest.New(0xC100)
	sys.Put(clipboard.CF_LOCALE, nil)
	h, _ := sys.Data(clipboard.CF_LOCALE)

	data, err := clipboard.ReadHandle(sys, h)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Len(t, data, 0)
}

func TestReadHandle_LockFailure(t *testing.T) {
	sys := clipboardtest.New(0xC100)
	sys.Put(clipboard.CF_TEXT, []byte("abc"))
	sys.LockErr[clipboard.CF_TEXT] = true
	h, _ := sys.Data(clipboard.CF_TEXT)

	_, err := clipboard.ReadHandle(sys, h)
	assert.Error(t, err)
	assert.Zero(t, sys.LockedBlocks())
}

func TestWriteHandle(t *testing.T) {
	sys := clipboardtest.New(0xC100)

	h, err := clipboard.WriteHandle(sys, []byte("payload"))
	require.NoError(t, err)
	data, ok := sys.Block(h)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)
	assert.Zero(t, sys.LockedBlocks())
}

func TestWriteHandle_EmptyPayload(t *testing.T) {
	sys := clipboardtest.New(0xC100)
	sys.LockNew = true

	h, err := clipboard.WriteHandle(sys, nil)
	require.NoError(t, err, "empty payloads are never locked")
	assert.Equal(t, 0, sys.Size(h))
}

func TestWriteHandle_AllocFailure(t *testing.T) {
	sys := clipboardtest.New(0xC100)
	sys.AllocErr[3] = true

	_, err := clipboard.WriteHandle(sys, []byte("abc"))
	assert.Error(t, err)
	assert.Zero(t, sys.Blocks())
}

func TestWriteHandle_LockFailureReleasesBlock(t *testing.T) {
	sys := clipboardtest.New(0xC100)
	sys.LockNew = true

	_, err := clipboard.WriteHandle(sys, []byte("abc"))
	assert.Error(t, err)
	assert.Len(t, sys.Freed, 1)
	assert.Zero(t, sys.Blocks())
}
