package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/util"
)

func fetchPage(
	db config.PgxIface,
	page *repository.Page,
	items any,
	selects, from, orderBy string,
	queryArgs ...any,
) error {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT count(*) FROM `+from, queryArgs...)
	batch.Queue(
		`SELECT `+selects+
			` FROM `+from+
			` ORDER BY `+orderBy+
			` LIMIT $`+strconv.Itoa(len(queryArgs)+1)+
			` OFFSET $`+strconv.Itoa(len(queryArgs)+2),
		append(queryArgs, page.Limit, page.Offset)...,
	)

	br := db.SendBatch(context.Background(), batch)
	defer br.Close()

	if rows, err := br.Query(); err != nil {
		return err
	} else if err := util.ScanNextRow(rows, &page.Total); err != nil {
		return err
	}

	if rows, err := br.Query(); err != nil {
		return err
	} else if err := pgxscan.ScanAll(items, rows); err != nil {
		return err
	}

	return nil
}

// stateInts converts states for array binding.
func stateInts(states []domain.State) []int {
	ints := make([]int, len(states))
	for i, state := range states {
		ints[i] = int(state)
	}
	return ints
}

// conditions accumulates WHERE clauses with positional args so filter
// structs translate into one query string.
type conditions struct {
	clauses []string
	args    []any
}

func (self *conditions) add(column, operator string, value any) {
	self.args = append(self.args, value)
	self.clauses = append(self.clauses, fmt.Sprintf("%s %s $%d", column, operator, len(self.args)))
}

func (self *conditions) eq(column string, value any) {
	self.add(column, "=", value)
}

func (self *conditions) anyInt(column string, values []int) {
	self.args = append(self.args, values)
	self.clauses = append(self.clauses, fmt.Sprintf("%s = ANY($%d)", column, len(self.args)))
}

// expr appends a clause with one positional arg; format gets the arg's
// placeholder number, e.g. "id IN (SELECT ... WHERE x = $%d)".
func (self *conditions) expr(format string, value any) {
	self.args = append(self.args, value)
	self.clauses = append(self.clauses, fmt.Sprintf(format, len(self.args)))
}

func (self *conditions) raw(clause string) {
	self.clauses = append(self.clauses, clause)
}

func (self *conditions) where() string {
	if len(self.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(self.clauses, " AND ")
}
