package spooler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andriemoral27/PrinTech-Main/internal/core"
)

// scriptedRunner returns canned output per command name and records the
// invocations it saw.
type scriptedRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   [][]string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.outputs[name], r.errs[name]
}

func TestLPSubmit(t *testing.T) {
	tests := []struct {
		name     string
		req      core.SubmitRequest
		wantArgs []string
	}{
		{
			name: "black and white all pages",
			req: core.SubmitRequest{
				Path:        "/tmp/job-1-thesis.pdf",
				Destination: "Epson_L5290",
				Color:       core.ColorBlackWhite,
			},
			wantArgs: []string{"lp", "-d", "Epson_L5290", "-o", "ColorModel=Gray", "/tmp/job-1-thesis.pdf"},
		},
		{
			name: "colored with page range",
			req: core.SubmitRequest{
				Path:        "/tmp/job-2-photos.pdf",
				Destination: "Epson_L5290",
				Color:       core.ColorColored,
				Range:       &core.PageRange{Start: 3, End: 7},
			},
			wantArgs: []string{"lp", "-d", "Epson_L5290", "-o", "ColorModel=RGB", "-o", "page-ranges=3-7", "/tmp/job-2-photos.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptedRunner{outputs: map[string]string{
				"lp": "request id is Epson_L5290-42 (1 file(s))\n",
			}}
			s := NewLPSpoolerWithRunner(runner)

			handle, err := s.Submit(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if handle != "Epson_L5290-42" {
				t.Errorf("handle = %q", handle)
			}
			if len(runner.calls) != 1 {
				t.Fatalf("ran %d commands, want 1", len(runner.calls))
			}
			if got := strings.Join(runner.calls[0], " "); got != strings.Join(tt.wantArgs, " ") {
				t.Errorf("command = %q, want %q", got, strings.Join(tt.wantArgs, " "))
			}
		})
	}
}

func TestLPSubmitFailures(t *testing.T) {
	t.Run("command error", func(t *testing.T) {
		runner := &scriptedRunner{
			outputs: map[string]string{"lp": "lp: The printer or class does not exist."},
			errs:    map[string]error{"lp": errors.New("exit status 1")},
		}
		s := NewLPSpoolerWithRunner(runner)
		if _, err := s.Submit(context.Background(), core.SubmitRequest{Destination: "Nope"}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unparseable output", func(t *testing.T) {
		runner := &scriptedRunner{outputs: map[string]string{"lp": "something unexpected"}}
		s := NewLPSpoolerWithRunner(runner)
		if _, err := s.Submit(context.Background(), core.SubmitRequest{Destination: "Epson_L5290"}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestLPPoll(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   core.SpoolStatus
	}{
		{
			name:   "still queued",
			output: "Epson_L5290-42  root  15360  Sat 30 Aug 2026 10:00:00 AM\n",
			want:   core.SpoolQueued,
		},
		{
			name:   "queue has other jobs only",
			output: "Epson_L5290-99  root  1024  Sat 30 Aug 2026 10:05:00 AM\n",
			want:   core.SpoolDone,
		},
		{
			name:   "empty queue",
			output: "",
			want:   core.SpoolDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptedRunner{outputs: map[string]string{"lpstat": tt.output}}
			s := NewLPSpoolerWithRunner(runner)

			status, err := s.Poll(context.Background(), "Epson_L5290-42")
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if status != tt.want {
				t.Errorf("status = %v, want %v", status, tt.want)
			}
		})
	}
}

func TestLPPollError(t *testing.T) {
	runner := &scriptedRunner{errs: map[string]error{"lpstat": errors.New("scheduler not responding")}}
	s := NewLPSpoolerWithRunner(runner)
	if _, err := s.Poll(context.Background(), "Epson_L5290-42"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRequestID(t *testing.T) {
	tests := []struct {
		out     string
		want    string
		wantErr bool
	}{
		{out: "request id is Epson_L5290-42 (1 file(s))", want: "Epson_L5290-42"},
		{out: "some banner\nrequest id is HP-7 (1 file(s))\n", want: "HP-7"},
		{out: "request id is ", wantErr: true},
		{out: "no id here", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseRequestID(tt.out)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRequestID(%q) accepted", tt.out)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRequestID(%q): %v", tt.out, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRequestID(%q) = %q, want %q", tt.out, got, tt.want)
		}
	}
}

func TestLibreOfficeConvert(t *testing.T) {
	outDir := t.TempDir()

	t.Run("success", func(t *testing.T) {
		pdf := filepath.Join(outDir, "thesis.pdf")
		if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatal(err)
		}
		runner := &scriptedRunner{outputs: map[string]string{"libreoffice": "convert ok"}}
		c := NewLibreOfficeConverterWithRunner("", runner)

		got, err := c.Convert(context.Background(), "/uploads/thesis.docx", outDir)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if got != pdf {
			t.Errorf("output = %q, want %q", got, pdf)
		}

		wantArgs := []string{"libreoffice", "--headless", "--convert-to", "pdf", "--outdir", outDir, "/uploads/thesis.docx"}
		if got := strings.Join(runner.calls[0], " "); got != strings.Join(wantArgs, " ") {
			t.Errorf("command = %q, want %q", got, strings.Join(wantArgs, " "))
		}
	})

	t.Run("silent failure produces no output file", func(t *testing.T) {
		runner := &scriptedRunner{outputs: map[string]string{"libreoffice": "convert ok"}}
		c := NewLibreOfficeConverterWithRunner("", runner)

		if _, err := c.Convert(context.Background(), "/uploads/broken.docx", outDir); err == nil {
			t.Fatal("expected error when no pdf appears")
		}
	})

	t.Run("command failure", func(t *testing.T) {
		runner := &scriptedRunner{errs: map[string]error{"soffice": errors.New("exit status 77")}}
		c := NewLibreOfficeConverterWithRunner("soffice", runner)

		if _, err := c.Convert(context.Background(), "/uploads/thesis.docx", outDir); err == nil {
			t.Fatal("expected error")
		}
	})
}
