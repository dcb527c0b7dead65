// Package pagination holds the page arithmetic shared by paginated views.
//
// Page indexes are zero-based everywhere inside the client, matching the
// API. Page numbers shown to people are one-based. Index and Number convert
// between the two at the public boundary; callers never store both.
package pagination

// DefaultSize is the page size a fresh view starts with.
const DefaultSize = 6

// Sizes are the page sizes the UI offers.
var Sizes = []int{6, 12, 24, 48}

// ValidSize reports whether size is one of Sizes.
func ValidSize(size int) bool {
	for _, s := range Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// TotalPages returns ceil(total / size), or 0 for an empty collection.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Number converts a zero-based index into a one-based page number.
func Number(index int) int { return index + 1 }

// Index converts a one-based page number into a zero-based index.
func Index(number int) int { return number - 1 }

// InRange reports whether the zero-based index addresses an existing page.
// With unknown or zero total pages nothing is in range.
func InRange(index, totalPages int) bool {
	return totalPages > 0 && index >= 0 && index < totalPages
}

// DisplayNumber is the one-based page shown for index, kept within
// [1, max(totalPages, 1)].
func DisplayNumber(index, totalPages int) int {
	n := Number(index)
	upper := totalPages
	if upper < 1 {
		upper = 1
	}
	if n < 1 {
		return 1
	}
	if n > upper {
		return upper
	}
	return n
}

// Range returns the one-based positions of the first and last item on the
// page shown as number, for "Showing 7-12 of 40". Both are 0 when empty.
func Range(number, size, total int) (start, end int) {
	if total <= 0 || size <= 0 || number < 1 {
		return 0, 0
	}
	start = (number-1)*size + 1
	if start > total {
		return 0, 0
	}
	end = number * size
	if end > total {
		end = total
	}
	return start, end
}

// Item is one control in a page selector: a page number or a gap.
type Item struct {
	Number   int  `json:"number,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

const maxVisiblePages = 5

// Window lists the selector items around the one-based current page. The
// first and last pages are always present; at most three neighbours are
// shown in between, with gaps marked by ellipsis items. A single page needs
// no selector and yields nil.
func Window(current, totalPages int) []Item {
	if totalPages <= 1 {
		return nil
	}

	var items []Item
	add := func(n int) {
		items = append(items, Item{Number: n, Current: n == current})
	}

	if totalPages <= maxVisiblePages {
		for n := 1; n <= totalPages; n++ {
			add(n)
		}
		return items
	}

	start := current - 1
	if start < 2 {
		start = 2
	}
	end := current + 1
	if end > totalPages-1 {
		end = totalPages - 1
	}
	if current <= 3 {
		start, end = 2, 4
	}
	if current >= totalPages-2 {
		start, end = totalPages-3, totalPages-1
	}

	add(1)
	if start > 2 {
		items = append(items, Item{Ellipsis: true})
	}
	for n := start; n <= end; n++ {
		add(n)
	}
	if end < totalPages-1 {
		items = append(items, Item{Ellipsis: true})
	}
	add(totalPages)
	return items
}
