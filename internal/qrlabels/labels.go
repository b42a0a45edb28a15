// Package qrlabels generates per-auction QR codes and printable label
// sheets. Codes point at the tracked /qr/{code} redirect so scans are
// counted before the visitor lands on the auction page.
package qrlabels

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/skip2/go-qrcode"

	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// labelsPerSheet is the n-up grid size: 9 labels on a Letter page.
const labelsPerSheet = 9

const qrPixels = 512

// Generator builds QR codes and label sheets.
type Generator struct {
	baseURL string
	workDir string
}

// NewGenerator creates a generator. baseURL is the public URL of this
// service; workDir holds intermediate files.
func NewGenerator(baseURL, workDir string) *Generator {
	return &Generator{baseURL: baseURL, workDir: workDir}
}

// ScanURL returns the tracked redirect URL encoded into the QR code.
func (g *Generator) ScanURL(auctionCode string) string {
	return fmt.Sprintf("%s/qr/%s", g.baseURL, auctionCode)
}

// QRPNG renders the auction's QR code as a PNG.
func (g *Generator) QRPNG(auctionCode string) ([]byte, error) {
	png, err := qrcode.Encode(g.ScanURL(auctionCode), qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// LabelSheet renders a printable PDF with count copies of the auction's QR
// label arranged labelsPerSheet to a page.
func (g *Generator) LabelSheet(auctionCode string, count int) ([]byte, error) {
	if count <= 0 {
		count = labelsPerSheet
	}

	png, err := g.QRPNG(auctionCode)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(g.workDir, "labels-")
	if err != nil {
		return nil, fmt.Errorf("failed to create label workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	imgPath := filepath.Join(dir, "qr.png")
	if err := os.WriteFile(imgPath, png, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write QR image: %w", err)
	}

	// NUp lays the same image out repeatedly, one input per cell.
	imgFiles := make([]string, count)
	for i := range imgFiles {
		imgFiles[i] = imgPath
	}

	nup, err := api.ImageNUpConfig(labelsPerSheet, "formsize:Letter", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build n-up config: %w", err)
	}

	outPath := filepath.Join(dir, "labels.pdf")
	if err := api.NUpFile(imgFiles, outPath, nil, nup, nil); err != nil {
		return nil, fmt.Errorf("failed to assemble label sheet: %w", err)
	}

	pdf, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read label sheet: %w", err)
	}

	logger.Info("qrlabels: generated label sheet",
		"auction_code", auctionCode, "labels", count, "bytes", len(pdf))
	return pdf, nil
}
