package dataset

import (
	"context"
	"fmt"
	"maps"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/datatable/internal/table"
)

// PGLoader returns a LoadFunc that runs sql and turns each result row into
// a table.Row keyed by column name. Values keep the types pgx decodes them
// to (pgtype.Numeric, time.Time, [16]byte UUIDs and so on); the table
// package normalizes them for display and export.
func PGLoader(db Querier, sql string, args ...any) LoadFunc {
	return func(ctx context.Context) ([]table.Row, error) {
		rows, err := db.Query(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("query dataset: %w", err)
		}

		records, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return nil, fmt.Errorf("collect dataset rows: %w", err)
		}

		out := make([]table.Row, len(records))
		for i, m := range records {
			out[i] = table.Row(m)
		}
		return out, nil
	}
}

// StaticLoader returns a LoadFunc serving fixed rows. Each call returns
// shallow copies so callers cannot change the source rows.
func StaticLoader(rows []table.Row) LoadFunc {
	return func(ctx context.Context) ([]table.Row, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := make([]table.Row, len(rows))
		for i, r := range rows {
			out[i] = maps.Clone(r)
		}
		return out, nil
	}
}
