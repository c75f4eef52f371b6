package decode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/coldecode/errs"
)

// Metadata entry separator. Bin entries split at the first separator,
// recode entries at the last one so that labels may contain it.
const entrySeparator = ":"

// parseBinColumn reads the "<min>:<max>" boundaries of 1-based column col.
//
// The column must hold ColumnDistinctCount entries starting at row 0. A null
// entry or the end of the metadata before the last bin is a corruption. A
// missing last entry ends the column early and drops that bin.
func parseBinColumn(meta MetadataReader, col int) (mins, maxs []float64, err error) {
	numBins := meta.ColumnDistinctCount(col - 1)
	if numBins < 0 {
		return nil, nil, fmt.Errorf("%w: column %d declares %d bins", errs.ErrMetadataCorruption, col, numBins)
	}

	mins = make([]float64, numBins)
	maxs = make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		var entry string
		var ok bool
		if i < meta.NumRows() {
			entry, ok = meta.GetString(i, col-1)
		}
		if !ok {
			if i+1 < numBins {
				return nil, nil, fmt.Errorf("%w: column %d did not reach number of bins: %d/%d",
					errs.ErrMetadataCorruption, col, i+1, numBins)
			}

			return mins[:i], maxs[:i], nil
		}

		mins[i], maxs[i], err = parseBinEntry(entry)
		if err != nil {
			return nil, nil, fmt.Errorf("column %d bin %d: %w", col, i+1, err)
		}
	}

	return mins, maxs, nil
}

func parseBinEntry(entry string) (lo, hi float64, err error) {
	minStr, maxStr, found := strings.Cut(entry, entrySeparator)
	if !found {
		return 0, 0, fmt.Errorf("%w: bin boundary %q has no %q separator", errs.ErrMetadataParse, entry, entrySeparator)
	}

	lo, err = strconv.ParseFloat(strings.TrimSpace(minStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bin minimum in %q", errs.ErrMetadataParse, entry)
	}
	hi, err = strconv.ParseFloat(strings.TrimSpace(maxStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bin maximum in %q", errs.ErrMetadataParse, entry)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: bin minimum exceeds maximum in %q", errs.ErrMetadataParse, entry)
	}

	return lo, hi, nil
}

// parseRecodeColumn reads the "<label>:<code>" entries of 1-based column col
// into a slice indexed by code-1.
//
// Entries may appear in any order, but every code in 1..ColumnDistinctCount
// must be present exactly once within the first ColumnDistinctCount rows.
func parseRecodeColumn(meta MetadataReader, col int) ([]string, error) {
	n := meta.ColumnDistinctCount(col - 1)
	if n < 0 {
		return nil, fmt.Errorf("%w: column %d declares %d labels", errs.ErrMetadataCorruption, col, n)
	}

	labels := make([]string, n)
	filled := make([]bool, n)
	for i := 0; i < n; i++ {
		var entry string
		var ok bool
		if i < meta.NumRows() {
			entry, ok = meta.GetString(i, col-1)
		}
		if !ok {
			return nil, fmt.Errorf("%w: column %d did not reach number of labels: %d/%d",
				errs.ErrMetadataCorruption, col, i+1, n)
		}

		label, code, err := parseRecodeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col, err)
		}
		if code < 1 || code > n {
			return nil, fmt.Errorf("%w: column %d code %d of %q outside 1..%d",
				errs.ErrMetadataParse, col, code, entry, n)
		}
		if filled[code-1] {
			return nil, fmt.Errorf("%w: column %d code %d assigned twice", errs.ErrMetadataParse, col, code)
		}
		labels[code-1] = label
		filled[code-1] = true
	}

	return labels, nil
}

func parseRecodeEntry(entry string) (string, int, error) {
	idx := strings.LastIndex(entry, entrySeparator)
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: recode entry %q has no %q separator", errs.ErrMetadataParse, entry, entrySeparator)
	}

	code, err := strconv.Atoi(strings.TrimSpace(entry[idx+len(entrySeparator):]))
	if err != nil {
		return "", 0, fmt.Errorf("%w: recode code in %q", errs.ErrMetadataParse, entry)
	}

	return entry[:idx], code, nil
}
