package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/academic"
	"github.com/trezcool/madrasa/core/fee"
	"github.com/trezcool/madrasa/core/notice"
	"github.com/trezcool/madrasa/core/reminder"
	"github.com/trezcool/madrasa/core/staff"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/user"
)

type (
	// DB keeps every table in memory. It backs tests and local demos.
	DB struct {
		user         *table[user.User]
		student      *table[student.Student]
		payment      *table[fee.Payment]
		reminder     *table[reminder.Reminder]
		settings     *settingsTable
		notice       *table[notice.Notice]
		staff        *table[staff.Staff]
		classLevel   *table[academic.ClassLevel]
		academicYear *table[academic.AcademicYear]
	}

	table[T any] struct {
		mutex sync.RWMutex
		rows  map[string]*T
	}

	settingsTable struct {
		mutex sync.RWMutex
		row   *reminder.Settings
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func Open() *DB {
	return &DB{
		user:         newTable[user.User](),
		student:      newTable[student.Student](),
		payment:      newTable[fee.Payment](),
		reminder:     newTable[reminder.Reminder](),
		settings:     new(settingsTable),
		notice:       newTable[notice.Notice](),
		staff:        newTable[staff.Staff](),
		classLevel:   newTable[academic.ClassLevel](),
		academicYear: newTable[academic.AcademicYear](),
	}
}

// all returns copies of the rows matching keep (all rows when keep is nil). Callers hold the lock.
func (t *table[T]) all(keep func(T) bool) []T {
	rows := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		if keep == nil || keep(*r) {
			rows = append(rows, *r)
		}
	}
	return rows
}

// sortBy sorts rows with the first comparison that tells them apart.
// Every cmp func reports -1, 0 or 1.
func sortBy[T any](rows []T, cmps ...func(a, b T) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, cmp := range cmps {
			if c := cmp(rows[i], rows[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func desc[T any](cmp func(a, b T) int) func(a, b T) int {
	return func(a, b T) int { return -cmp(a, b) }
}

func cmpString(a, b string) int { return strings.Compare(a, b) }

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// orderingCmps maps orderings to comparators, using the comparators known for each column.
func orderingCmps[T any](ordering []core.DBOrdering, byColumn map[string]func(a, b T) int) []func(a, b T) int {
	cmps := make([]func(a, b T) int, 0, len(ordering))
	for _, ord := range ordering {
		cmp, ok := byColumn[ord.Field]
		if !ok {
			continue
		}
		if !ord.Ascending {
			cmp = desc(cmp)
		}
		cmps = append(cmps, cmp)
	}
	return cmps
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func isExcluded(id string, excludedIDs []string) bool {
	return containsID(excludedIDs, id)
}
