// Package spooler submits documents to the CUPS print queue through the
// lp and lpstat command line tools.
package spooler

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/andriemoral27/PrinTech-Main/internal/core"
)

// LPSpooler shells out to lp for submission and lpstat for queue status.
// The request id lp prints ("request id is Epson_L5290-42 ...") is the
// handle; a job is done once lpstat -o no longer lists it.
type LPSpooler struct {
	runner CommandRunner
}

// CommandRunner abstracts exec.CommandContext so tests can script tool
// output without a CUPS install.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

func NewLPSpooler() *LPSpooler {
	return &LPSpooler{runner: execRunner{}}
}

func NewLPSpoolerWithRunner(runner CommandRunner) *LPSpooler {
	return &LPSpooler{runner: runner}
}

func (s *LPSpooler) Submit(ctx context.Context, req core.SubmitRequest) (string, error) {
	args := []string{"-d", req.Destination, "-o", colorModelOption(req.Color)}
	if req.Range != nil {
		args = append(args, "-o", fmt.Sprintf("page-ranges=%s", req.Range))
	}
	args = append(args, req.Path)

	out, err := s.runner.Run(ctx, "lp", args...)
	if err != nil {
		return "", fmt.Errorf("lp failed: %v: %s", err, strings.TrimSpace(out))
	}

	handle, err := parseRequestID(out)
	if err != nil {
		return "", err
	}
	return handle, nil
}

// Poll runs lpstat -o and reports SpoolDone once the handle has left the
// queue. CUPS drops the entry when the job finishes or is cancelled at the
// printer; either way there is nothing left for the kiosk to wait on.
func (s *LPSpooler) Poll(ctx context.Context, handle string) (core.SpoolStatus, error) {
	out, err := s.runner.Run(ctx, "lpstat", "-o")
	if err != nil {
		return core.SpoolQueued, fmt.Errorf("lpstat failed: %v: %s", err, strings.TrimSpace(out))
	}

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == handle {
			return core.SpoolQueued, nil
		}
	}
	return core.SpoolDone, nil
}

func colorModelOption(mode core.ColorMode) string {
	if mode == core.ColorColored {
		return "ColorModel=RGB"
	}
	return "ColorModel=Gray"
}

// parseRequestID extracts the job handle from lp's stdout, e.g.
// "request id is Epson_L5290-42 (1 file(s))".
func parseRequestID(out string) (string, error) {
	const marker = "request id is "
	idx := strings.Index(out, marker)
	if idx < 0 {
		return "", fmt.Errorf("no request id in lp output: %s", strings.TrimSpace(out))
	}
	rest := out[idx+len(marker):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", fmt.Errorf("malformed lp output: %s", strings.TrimSpace(out))
	}
	return fields[0], nil
}
