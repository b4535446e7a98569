// Package sqlxrepos implements the core repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
)

// validID reports whether id can be a primary key. Anything else cannot exist, so lookups short-circuit to not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			res = append(res, id)
		}
	}
	return res
}

// orderBy builds an ORDER BY clause from orderings whose field is a known column (or column expression).
func orderBy(ordering []core.DBOrdering, columns map[string]string, tieBreakers ...string) string {
	terms := make([]string, 0, len(ordering)+len(tieBreakers))
	for _, ord := range ordering {
		expr, ok := columns[ord.Field]
		if !ok {
			continue
		}
		terms = append(terms, core.DBOrdering{Field: expr, Ascending: ord.Ascending}.String())
	}
	terms = append(terms, tieBreakers...)
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// where accumulates AND-ed conditions written with '?' bind vars.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// in adds "column IN (?)" expanded for vals.
func (w *where) in(column string, vals interface{}) error {
	cond, args, err := sqlxIn(column+" IN (?)", vals)
	if err != nil {
		return err
	}
	w.add(cond, args...)
	return nil
}

func sqlxIn(query string, args ...interface{}) (string, []interface{}, error) {
	q, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding IN clause")
	}
	return q, expanded, nil
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// like escapes s for a case-insensitive substring match.
func like(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// checkAffected returns notFound when res touched no row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// get runs a single-row query and maps sql.ErrNoRows to notFound.
func get(err error, notFound error) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return err
}
