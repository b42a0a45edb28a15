package qrlabels

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanURL(t *testing.T) {
	g := NewGenerator("https://tools.mclemoreauction.com", t.TempDir())
	assert.Equal(t, "https://tools.mclemoreauction.com/qr/2524", g.ScanURL("2524"))
}

func TestQRPNG(t *testing.T) {
	g := NewGenerator("https://tools.mclemoreauction.com", t.TempDir())

	png, err := g.QRPNG("2524")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "expected PNG magic bytes")
}

func TestLabelSheet(t *testing.T) {
	g := NewGenerator("https://tools.mclemoreauction.com", t.TempDir())

	pdf, err := g.LabelSheet("2524", 18)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "expected PDF header")
}

func TestLabelSheet_DefaultCount(t *testing.T) {
	g := NewGenerator("https://tools.mclemoreauction.com", t.TempDir())

	pdf, err := g.LabelSheet("2524", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}
