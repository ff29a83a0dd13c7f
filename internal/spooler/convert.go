package spooler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LibreOfficeConverter converts office documents to PDF with a headless
// soffice run, the same path the kiosk uses for docx uploads.
type LibreOfficeConverter struct {
	cmd    string
	runner CommandRunner
}

func NewLibreOfficeConverter(cmd string) *LibreOfficeConverter {
	if cmd == "" {
		cmd = "libreoffice"
	}
	return &LibreOfficeConverter{cmd: cmd, runner: execRunner{}}
}

func NewLibreOfficeConverterWithRunner(cmd string, runner CommandRunner) *LibreOfficeConverter {
	if cmd == "" {
		cmd = "libreoffice"
	}
	return &LibreOfficeConverter{cmd: cmd, runner: runner}
}

// Convert produces outDir/<base>.pdf from sourcePath. LibreOffice exits
// zero even when it silently skips a file it cannot read, so the output
// file's existence is the real success check.
func (c *LibreOfficeConverter) Convert(ctx context.Context, sourcePath, outDir string) (string, error) {
	out, err := c.runner.Run(ctx, c.cmd,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, sourcePath)
	if err != nil {
		return "", fmt.Errorf("%s failed: %v: %s", c.cmd, err, strings.TrimSpace(out))
	}

	base := filepath.Base(sourcePath)
	pdf := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if _, err := os.Stat(pdf); err != nil {
		return "", fmt.Errorf("conversion produced no output for %s: %w", base, err)
	}
	return pdf, nil
}
