package projectdetail

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taskaura/internal/models"
)

// Filter selects tasks by completion.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// SortKey selects the task ordering.
type SortKey string

const (
	SortName SortKey = "name"
	SortDate SortKey = "date"
)

// SortOrder is the direction of the ordering.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseFilter validates a filter name.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case FilterAll, FilterCompleted, FilterPending:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// ParseSortKey validates a sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortName, SortDate:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseSortOrder validates a sort direction.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case Asc, Desc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Criteria are the inputs of the visible task list.
type Criteria struct {
	Filter Filter    `json:"filter"`
	Sort   SortKey   `json:"sort"`
	Order  SortOrder `json:"order"`
	Search string    `json:"search"`
}

// DefaultCriteria shows every task by due date, earliest first.
var DefaultCriteria = Criteria{Filter: FilterAll, Sort: SortDate, Order: Asc}

// Visible filters by status, then by case-insensitive title substring, then
// sorts stably. Tasks without a due date sort as the epoch. The input slice
// is not modified.
func Visible(tasks []models.Task, c Criteria) []models.Task {
	needle := strings.ToLower(c.Search)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		switch c.Filter {
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		case FilterPending:
			if t.Completed {
				continue
			}
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Title), needle) {
			continue
		}
		out = append(out, t)
	}

	var cmp func(a, b models.Task) int
	switch c.Sort {
	case SortName:
		col := collate.New(language.English)
		cmp = func(a, b models.Task) int { return col.CompareString(a.Title, b.Title) }
	default:
		cmp = func(a, b models.Task) int {
			da, db := dueMillis(a), dueMillis(b)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			}
			return 0
		}
	}
	desc := c.Order == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func dueMillis(t models.Task) int64 {
	ts, ok := t.DueTime()
	if !ok {
		return 0
	}
	return ts.UnixMilli()
}
