package relevance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/feichai0017/relevance-finder/internal/models"
)

// Compact turns a strictly ascending page set into the minimal list of range
// tokens: [2 3 4 7 9 10] becomes ["2-4" "7" "9-10"]. The returned ranges are
// never nil; ok is false when pages is empty, meaning "no relevant pages".
func Compact(pages []int) (ranges models.PageRanges, ok bool) {
	ranges = make(models.PageRanges, 0)
	if len(pages) == 0 {
		return ranges, false
	}

	rangeStart, prev := pages[0], pages[0]
	for _, cur := range pages[1:] {
		if cur != prev+1 {
			ranges = append(ranges, rangeToken(rangeStart, prev))
			rangeStart = cur
		}
		prev = cur
	}
	ranges = append(ranges, rangeToken(rangeStart, prev))
	return ranges, true
}

func rangeToken(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

// Expand reconstructs the page set encoded by ranges.
func Expand(ranges models.PageRanges) ([]int, error) {
	pages := make([]int, 0, len(ranges))
	last := 0
	for _, tok := range ranges {
		start, end, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if start <= last {
			return nil, fmt.Errorf("%w: %q is not ascending", ErrInvalidRange, tok)
		}
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
		last = end
	}
	return pages, nil
}

func parseToken(tok string) (int, int, error) {
	lo, hi, isRun := strings.Cut(tok, "-")
	start, err := strconv.Atoi(lo)
	if err != nil || start < 1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, tok)
	}
	if !isRun {
		return start, start, nil
	}
	end, err := strconv.Atoi(hi)
	if err != nil || end <= start {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, tok)
	}
	return start, end, nil
}
