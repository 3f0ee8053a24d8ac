package pdf

import (
	"sort"
	"strconv"
	"strings"
)

// ParsePageSelection turns a human-entered page string like "8", "1,3,8" or
// "1,3,5-8" into sorted, deduplicated zero-based page indices.
//
// Empty or whitespace-only input returns nil, meaning "no restriction".
// Parsing is deliberately permissive: tokens that are not integers are
// skipped rather than failing the whole selection, and a reverse range like
// "8-5" contributes nothing.
func ParsePageSelection(input string) []int {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	seen := map[int]struct{}{}
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)

		if from, to, ok := strings.Cut(token, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(from))
			end, err2 := strconv.Atoi(strings.TrimSpace(to))
			if err1 != nil || err2 != nil {
				continue
			}
			for p := start; p <= end; p++ {
				seen[p-1] = struct{}{}
			}
			continue
		}

		page, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		seen[page-1] = struct{}{}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}
