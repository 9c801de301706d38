package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/storeguard/pkg/filter"
)

// searchCondition ORs a case-insensitive substring match over fields.
// It returns nil for a blank term.
func searchCondition(term string, fields ...exp.Likeable) exp.Expression {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	pattern := "%" + escapeLike(term) + "%"
	ors := make([]exp.Expression, 0, len(fields))
	for _, f := range fields {
		ors = append(ors, f.ILike(pattern))
	}
	return goqu.Or(ors...)
}

func columns(names ...string) []exp.Likeable {
	out := make([]exp.Likeable, len(names))
	for i, n := range names {
		out[i] = goqu.I(n)
	}
	return out
}

// enumCondition compares a column to selected with the same normalization
// the in-memory filter applies. It returns nil when the filter is disabled.
func enumCondition(column, selected string) exp.Expression {
	if filter.IsAll(selected) {
		return nil
	}
	return goqu.L("LOWER(REPLACE(?, ' ', ''))", goqu.I(column)).Eq(filter.Normalize(selected))
}

func conditions(exprs ...exp.Expression) []exp.Expression {
	out := make([]exp.Expression, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func paginate(ds *goqu.SelectDataset, limit, offset int) *goqu.SelectDataset {
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return ds
}
