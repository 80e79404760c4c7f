// Package pdfvalidation checks uploaded payment proofs: screenshots and PDF receipts
package pdfvalidation

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ProofLimits bounds an uploaded proof
type ProofLimits struct {
	MaxFileSizeMB int
	MaxPages      int // PDFs only
}

// DefaultProofLimits fit a UPI screenshot or a bank receipt
var DefaultProofLimits = ProofLimits{
	MaxFileSizeMB: 5,
	MaxPages:      5,
}

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ValidationResult contains the result of proof validation
type ValidationResult struct {
	Valid       bool
	ContentType string
	Extension   string
	PageCount   int
	FileSize    int64
	Error       string
}

// ValidateProof sniffs content and validates it as an image or a PDF. A
// non-nil error means the check itself failed; a rejected upload is reported
// through result.Error.
func ValidateProof(filename string, content []byte, limits ProofLimits) (*ValidationResult, error) {
	result := &ValidationResult{FileSize: int64(len(content))}

	if len(content) == 0 {
		result.Error = "Proof file is empty"
		return result, nil
	}

	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if result.FileSize > maxSize {
		result.Error = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result, nil
	}

	contentType := http.DetectContentType(content)
	if ext, ok := allowedImageTypes[contentType]; ok {
		result.ContentType = contentType
		result.Extension = ext
		result.Valid = true
		return result, nil
	}

	if contentType == "application/pdf" || strings.EqualFold(filepath.Ext(filename), ".pdf") {
		pdfResult, err := ValidatePDFBytes(content, limits)
		if err != nil {
			return nil, err
		}
		pdfResult.ContentType = "application/pdf"
		pdfResult.Extension = ".pdf"
		return pdfResult, nil
	}

	result.Error = "Only PNG, JPEG, WebP images or PDF files are supported"
	return result, nil
}

// ValidatePDFBytes validates PDF content bytes against the given limits
func ValidatePDFBytes(content []byte, limits ProofLimits) (*ValidationResult, error) {
	result := &ValidationResult{
		FileSize: int64(len(content)),
	}

	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if result.FileSize > maxSize {
		result.Error = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result, nil
	}

	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		result.Error = "Invalid PDF file: missing PDF header"
		return result, nil
	}

	pageCount, err := getPDFPageCount(content)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to read PDF: %v", err)
		return result, nil
	}

	result.PageCount = pageCount

	if pageCount == 0 {
		result.Error = "PDF has no pages"
		return result, nil
	}

	if limits.MaxPages > 0 && pageCount > limits.MaxPages {
		result.Error = fmt.Sprintf("PDF has %d pages, which exceeds the maximum of %d pages for a payment proof",
			pageCount, limits.MaxPages)
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// sanitizePDF drops bytes after the last %%EOF marker, which some mobile
// banking apps append to exported receipts
func sanitizePDF(content []byte) []byte {
	eofMarker := []byte("%%EOF")
	lastEOF := bytes.LastIndex(content, eofMarker)
	if lastEOF == -1 {
		return content
	}

	pdfEnd := lastEOF + len(eofMarker)
	for pdfEnd < len(content) && (content[pdfEnd] == '\n' || content[pdfEnd] == '\r') {
		pdfEnd++
	}
	return content[:pdfEnd]
}

func getPDFPageCount(content []byte) (int, error) {
	content = sanitizePDF(content)

	pdfReader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}

	return pdfReader.NumPage(), nil
}
