package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andriemoral27/PrinTech-Main/internal/db"
)

// PageRange is an inclusive 1-based page interval.
type PageRange struct {
	Start int
	End   int
}

func (r PageRange) Count() int {
	return r.End - r.Start + 1
}

func (r PageRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParsePageSelection parses a page selection string against the document's
// total page count. "all" selects every page and returns a nil range;
// "5" selects a single page; "3-7" selects an inclusive range. An explicit
// selection must satisfy 1 <= start <= end <= totalPages.
func ParsePageSelection(sel string, totalPages int) (*PageRange, error) {
	if totalPages < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidPageSelection)
	}

	sel = strings.TrimSpace(strings.ToLower(sel))
	if sel == "" || sel == "all" {
		return nil, nil
	}

	var start, end int
	if before, after, found := strings.Cut(sel, "-"); found {
		s, err := strconv.Atoi(strings.TrimSpace(before))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPageSelection, sel)
		}
		e, err := strconv.Atoi(strings.TrimSpace(after))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPageSelection, sel)
		}
		start, end = s, e
	} else {
		n, err := strconv.Atoi(sel)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPageSelection, sel)
		}
		start, end = n, n
	}

	if start < 1 || start > end || end > totalPages {
		return nil, fmt.Errorf("%w: %q outside 1-%d", ErrInvalidPageSelection, sel, totalPages)
	}

	return &PageRange{Start: start, End: end}, nil
}

// PageCount returns how many sheets a selection prints.
func PageCount(sel string, totalPages int) (int, error) {
	r, err := ParsePageSelection(sel, totalPages)
	if err != nil {
		return 0, err
	}
	if r == nil {
		return totalPages, nil
	}
	return r.Count(), nil
}

// Rate returns the per-page rate for a color mode from a price table.
func Rate(mode ColorMode, table *db.PriceTable) int64 {
	if mode == ColorColored {
		return table.ColorRate
	}
	return table.BlackRate
}

// ComputePrice is the total amount due for printing pageCount pages.
// Callers must pass the price table effective at job-creation time, not at
// payment time.
func ComputePrice(pageCount int, mode ColorMode, table *db.PriceTable) int64 {
	return int64(pageCount) * Rate(mode, table)
}
