package pdfvalidation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestValidateProofAcceptsImages(t *testing.T) {
	res, err := ValidateProof("upi.png", pngHeader, DefaultProofLimits)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, ".png", res.Extension)
}

func TestValidateProofRejectsOtherContent(t *testing.T) {
	res, err := ValidateProof("notes.txt", []byte("hello there"), DefaultProofLimits)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "supported")

	res, err = ValidateProof("empty.png", nil, DefaultProofLimits)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidateProofSizeLimit(t *testing.T) {
	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2*1024*1024)...)
	res, err := ValidateProof("big.png", big, ProofLimits{MaxFileSizeMB: 1})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "1MB")
}

func TestValidatePDFBytesRejectsBrokenPDF(t *testing.T) {
	res, err := ValidateProof("receipt.pdf", []byte("%PDF-1.4\nnot really a pdf"), DefaultProofLimits)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ".pdf", res.Extension)
	assert.Contains(t, res.Error, "Failed to read PDF")
}

func TestSanitizePDFTrimsTrailingBytes(t *testing.T) {
	in := []byte("%PDF-1.4 body %%EOF\r\ngarbage")
	assert.Equal(t, []byte("%PDF-1.4 body %%EOF\r\n"), sanitizePDF(in))
}
