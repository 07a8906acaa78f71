// Package sqlxrepos implements the data layer repositories on Postgres.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

// trapNoRowsErr converts sql.ErrNoRows into the domain's not-found error.
func trapNoRowsErr(err, notFoundErr error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return err
}

func joinConds(conds []string) string {
	return strings.Join(conds, " AND ")
}

// orderBy renders an ORDER BY clause from orderings whose field is in the
// allowed column set; anything else is silently ignored. Returns defaultClause
// when nothing survives.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, defaultClause string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		dir := "DESC"
		if ord.Ascending {
			dir = "ASC"
		}
		clauses = append(clauses, col+" "+dir)
	}
	if len(clauses) == 0 {
		return defaultClause
	}
	return "ORDER BY " + strings.Join(clauses, ", ")
}
