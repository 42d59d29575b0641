//go:build !ocr

// Package ocr recognizes the text of rendered PDF pages.
//
// Two engines are available. The embedded gosseract engine links against
// libtesseract and is compiled only with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// The [CLI] engine runs the tesseract executable and works in every build.
// [NewRecognizer] with the "auto" backend picks the embedded engine when it
// is compiled in and the executable otherwise.
package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrOCRNotEnabled is returned by the embedded engine in builds without
// the "ocr" tag.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client stands in for the embedded engine. Every call fails with
// ErrOCRNotEnabled.
type Client struct {
	maxSide int
}

func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close does nothing. It may be called on a nil Client.
func (c *Client) Close() error {
	return nil
}

func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

func (c *Client) Recognize(ctx context.Context, img image.Image) (string, error) {
	return "", ErrOCRNotEnabled
}

func (c *Client) SetLanguage(lang string) error {
	return ErrOCRNotEnabled
}

func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return ErrOCRNotEnabled
}
