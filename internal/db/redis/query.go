package redis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/mapletenders/tenderindex/internal/db"
	"github.com/mapletenders/tenderindex/internal/domain/search/filter"
)

// buildKNNQuery renders "(<filter>)=>[KNN k @field $BLOB AS __vector_score]".
func buildKNNQuery(q *db.KNNQuery) string {
	knn := fmt.Sprintf("[KNN %d @%s $BLOB AS %s]", q.K, q.VectorField, db.VectorScoreField)
	if f := buildFilter(q.Filters); f != "" {
		return "(" + f + ")=>" + knn
	}
	return "*=>" + knn
}

// buildTextQuery splits the query into terms the way the server tokenizes
// documents and scopes them to q.Fields. Returns "" when nothing is searchable.
func buildTextQuery(q *db.TextQuery) string {
	terms := strings.FieldsFunc(q.Query, isSeparator)
	if len(terms) == 0 {
		return ""
	}

	sep := " "
	if q.MatchAny {
		sep = " | "
	}
	body := "(" + strings.Join(terms, sep) + ")"
	if len(q.Fields) == 0 {
		return body
	}
	return "@" + strings.Join(q.Fields, "|") + ":" + body
}

func isSeparator(r rune) bool {
	return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// buildFilter renders an expression as a query prefix. MUST conditions are
// ANDed, SHOULD conditions form one OR group and MUST_NOT conditions are negated.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string
	for _, c := range expr.Must() {
		if s := buildCondition(c); s != "" {
			parts = append(parts, s)
		}
	}
	if s := buildOr(expr.Should()); s != "" {
		parts = append(parts, s)
	}
	for _, c := range expr.MustNot() {
		if s := buildCondition(c); s != "" {
			parts = append(parts, "-"+s)
		}
	}
	return strings.Join(parts, " ")
}

func buildCondition(c filter.Condition) string {
	switch {
	case c.IsMatch():
		return buildTagFilter(c.Key(), c.Values())
	case c.IsRange():
		return buildNumericFilter(c.Key(), *c.Range())
	case c.IsMissing():
		return "ismissing(@" + c.Key() + ")"
	case c.IsAnyOf():
		return buildOr(c.AnyOf())
	default:
		return ""
	}
}

func buildOr(conds []filter.Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if s := buildCondition(c); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// buildTagFilter matches any of values. TAG matching ignores case unless the field is CASESENSITIVE.
func buildTagFilter(key string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = escapeTag(v)
	}
	return "@" + key + ":{" + strings.Join(escaped, " | ") + "}"
}

// escapeTag backslash-escapes every rune that would end or split a tag value.
func escapeTag(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isSeparator(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func buildNumericFilter(key string, r filter.Range) string {
	lo, hi := "-inf", "+inf"
	switch {
	case r.GT() != nil:
		lo = "(" + formatBound(*r.GT())
	case r.GTE() != nil:
		lo = formatBound(*r.GTE())
	}
	switch {
	case r.LT() != nil:
		hi = "(" + formatBound(*r.LT())
	case r.LTE() != nil:
		hi = formatBound(*r.LTE())
	}
	return "@" + key + ":[" + lo + " " + hi + "]"
}

// formatBound renders v without exponent notation.
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// vectorToBytes encodes v as little-endian FLOAT32 for the $BLOB parameter.
func vectorToBytes(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}
