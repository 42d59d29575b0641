//go:build ocr

// Package ocr recognizes the text of rendered PDF pages.
//
// This file holds the embedded engine, a gosseract client linked against
// libtesseract. Build with the "ocr" tag and the Tesseract development
// files installed (libtesseract-dev on Debian, tesseract on Homebrew).
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
)

// ErrOCRNotEnabled is declared in both builds; this one never returns it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client is the embedded Tesseract engine. One Client serves one goroutine.
type Client struct {
	client  *gosseract.Client
	maxSide int
}

// New creates a Client with Tesseract's defaults. Close releases the
// engine.
func New() (*Client, error) {
	client := gosseract.NewClient()
	return &Client{client: client}, nil
}

// Close releases the engine. Further calls are no-ops.
func (c *Client) Close() error {
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// RecognizeImage recognizes encoded image data (any format Leptonica
// reads) and returns Tesseract's text as is.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return text, nil
}

// Recognize encodes img and performs OCR on it.
func (c *Client) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := EncodePNG(img, c.maxSide)
	if err != nil {
		return "", err
	}
	return c.RecognizeImage(data)
}

// SetLanguage selects the trained data, e.g. "eng" or "eng+fra".
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(languages(lang)...)
}

// SetPageSegMode selects how Tesseract segments the page.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid page segmentation mode %d", mode)
	}
	return c.client.SetPageSegMode(gosseract.PageSegMode(mode))
}
