package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

// Ticket tracks one spooler submission and the temporary working files it
// produced. Close removes them; it is safe to call more than once and the
// dispatcher guarantees it runs on every failure path inside Submit, so a
// caller only needs to defer Close after a successful Submit.
type Ticket struct {
	Handle string

	workPath  string
	converted string
	closeOnce sync.Once
}

func (t *Ticket) Close() {
	t.closeOnce.Do(func() {
		if t.converted != "" && t.converted != t.workPath {
			os.Remove(t.converted)
		}
		if t.workPath != "" {
			os.Remove(t.workPath)
		}
	})
}

// Dispatcher prepares a job's document and hands it to the print spooler.
// It does not loop on the spooler itself; the caller polls Poll until the
// job leaves the queue.
type Dispatcher struct {
	spooler     Spooler
	converter   Converter
	workDir     string
	destination string
}

func NewDispatcher(spooler Spooler, converter Converter, workDir, destination string) *Dispatcher {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Dispatcher{
		spooler:     spooler,
		converter:   converter,
		workDir:     workDir,
		destination: destination,
	}
}

// Submit stages the job's source document into a working file, converts it
// to PDF when the source is not already one, and submits it to the spooler
// with the job's color option and page range. Conversion failure reports
// ErrConversionFailed without touching the spooler.
func (d *Dispatcher) Submit(ctx context.Context, job *db.PrintJob) (*Ticket, error) {
	rng, err := ParsePageSelection(job.PagesToPrint, job.TotalPages)
	if err != nil {
		return nil, err
	}

	workPath := filepath.Join(d.workDir, fmt.Sprintf("%s-%s", job.ID, filepath.Base(job.DocumentName)))
	if err := copyFile(job.SourcePath, workPath); err != nil {
		return nil, fmt.Errorf("%w: staging %s: %v", ErrSubmissionFailed, job.DocumentName, err)
	}

	ticket := &Ticket{workPath: workPath}

	printPath := workPath
	if !strings.EqualFold(filepath.Ext(workPath), ".pdf") {
		converted, err := d.converter.Convert(ctx, workPath, d.workDir)
		if err != nil {
			ticket.Close()
			return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
		}
		ticket.converted = converted
		printPath = converted
	}

	handle, err := d.spooler.Submit(ctx, SubmitRequest{
		Path:        printPath,
		Destination: d.destination,
		Color:       ColorMode(job.ColorMode),
		Range:       rng,
	})
	if err != nil {
		ticket.Close()
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	ticket.Handle = handle
	return ticket, nil
}

// Poll reports whether the submitted job is still in the external queue.
func (d *Dispatcher) Poll(ctx context.Context, ticket *Ticket) (SpoolStatus, error) {
	status, err := d.spooler.Poll(ctx, ticket.Handle)
	if err != nil {
		return SpoolQueued, fmt.Errorf("%w: %v", ErrPollFailed, err)
	}
	return status, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
