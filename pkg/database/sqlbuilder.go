package database

import (
	"github.com/huandu/go-sqlbuilder"
)

// Every builder renders PostgreSQL placeholders ($1, $2, ...).
var flavor = sqlbuilder.PostgreSQL

type (
	InsertBuilder = sqlbuilder.InsertBuilder
	UpdateBuilder = sqlbuilder.UpdateBuilder
	DeleteBuilder = sqlbuilder.DeleteBuilder
	SelectBuilder = sqlbuilder.SelectBuilder
)

func NewInsertBuilder() *InsertBuilder { return flavor.NewInsertBuilder() }

func NewUpdateBuilder() *UpdateBuilder { return flavor.NewUpdateBuilder() }

func NewDeleteBuilder() *DeleteBuilder { return flavor.NewDeleteBuilder() }

func NewSelectBuilder() *SelectBuilder { return flavor.NewSelectBuilder() }

// SelectStruct selects every db-tagged column of the struct v points at.
func SelectStruct(v any, table string) *SelectBuilder {
	return sqlbuilder.NewStruct(v).For(flavor).SelectFrom(table)
}

// InIDs renders "column IN (...)" over ids. An empty list matches no rows.
func InIDs(cond *sqlbuilder.Cond, column string, ids []int64) string {
	if len(ids) == 0 {
		return "1 = 0"
	}
	return cond.In(column, sqlbuilder.Flatten(ids)...)
}
