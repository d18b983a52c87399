package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"poolheap/pkg/pool"
)

func TestIsValidSize(t *testing.T) {
	require.True(t, IsValidSize(minBlockSize))
	require.True(t, IsValidSize(minBlockSize+pool.MinAlign))
	require.False(t, IsValidSize(0))
	require.False(t, IsValidSize(minBlockSize-pool.MinAlign))
	require.False(t, IsValidSize(minBlockSize+1))
}

func TestWriteTagRoundTrip(t *testing.T) {
	p, err := pool.Open(4096)
	require.NoError(t, err)
	defer p.Close()

	base := p.Base()
	tg := writeTag(base, 64, headerID)

	require.Equal(t, base, tg.addr())
	require.Equal(t, uint64(64), tg.Size())
	require.True(t, tg.isFreedBlock(headerID))
	require.False(t, tg.isFreedBlock(footerID))
	require.NoError(t, tg.validate(headerID))
	require.Error(t, tg.validate(footerID))
}

func TestDestroyTagClearsRecognition(t *testing.T) {
	p, err := pool.Open(4096)
	require.NoError(t, err)
	defer p.Close()

	tg := writeTag(p.Base(), 64, headerID)
	destroyTag(tg)

	require.False(t, tg.isFreedBlock(headerID))
	require.Error(t, tg.validate(headerID))
}

func TestValidateRejectsCorruptedSize(t *testing.T) {
	p, err := pool.Open(4096)
	require.NoError(t, err)
	defer p.Close()

	tg := writeTag(p.Base(), 64, headerID)
	tg.size = 3
	require.Error(t, tg.validate(headerID))
}
