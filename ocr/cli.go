package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CLI performs OCR by running the tesseract executable, feeding the image
// on stdin and reading the text from stdout.
type CLI struct {
	binPath  string
	language string
	psm      PageSegMode
	maxSide  int
}

// NewCLI creates a tesseract executable client from opts.
func NewCLI(opts Options) *CLI {
	bin := "tesseract"
	if opts.TesseractPath != "" {
		bin = filepath.Join(opts.TesseractPath, bin)
	}
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	return &CLI{binPath: bin, language: lang, psm: opts.PageSegMode, maxSide: opts.MaxImageSide}
}

// BinPath returns the tesseract executable that will be run.
func (c *CLI) BinPath() string {
	return c.binPath
}

// Args returns the command line arguments passed to tesseract.
func (c *CLI) Args() []string {
	return []string{"stdin", "stdout", "-l", c.language, "--psm", strconv.Itoa(int(c.psm))}
}

// Recognize encodes img as PNG and returns tesseract's output unmodified.
func (c *CLI) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := EncodePNG(img, c.maxSide)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, c.binPath, c.Args()...)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Close is a no-op; each Recognize call runs its own process.
func (c *CLI) Close() error {
	return nil
}
