package sqlsource

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/qbucket/filter"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func validIdent(s string) bool {
	return identPattern.MatchString(s)
}

// where renders the partition predicate for attribute under filters and
// returns its bind arguments.
func (s *Source) where(attribute string, filters filter.Set) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, filters.Len())

	sb.WriteString(" WHERE ")
	sb.WriteString(s.dialect.Quote(attribute))
	sb.WriteString(" IS NOT NULL")

	for _, p := range filters.Pairs() {
		args = append(args, p.Value)
		fmt.Fprintf(&sb, " AND CAST(%s AS %s) = %s",
			s.dialect.Quote(p.Key), s.dialect.Text, s.dialect.Placeholder(len(args)))
	}
	return sb.String(), args
}

func (s *Source) countQuery(attribute string, filters filter.Set) (string, []any) {
	where, args := s.where(attribute, filters)
	return "SELECT COUNT(*) FROM " + s.table + where, args
}

func (s *Source) valueQuery(attribute string, rank int, filters filter.Set) (string, []any) {
	where, args := s.where(attribute, filters)
	col := s.dialect.Quote(attribute)
	q := fmt.Sprintf("SELECT CAST(%s AS %s) FROM %s%s ORDER BY %s ASC LIMIT 1 OFFSET %d",
		col, s.dialect.Float, s.table, where, col, rank)
	return q, args
}

func (s *Source) distinctQuery(attribute string) string {
	col := s.dialect.Quote(attribute)
	return fmt.Sprintf("SELECT DISTINCT CAST(%s AS %s) FROM %s WHERE %s IS NOT NULL",
		col, s.dialect.Text, s.table, col)
}
