package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/mapletenders/tenderindex/internal/db"
)

// SearchKNN runs a filtered KNN query. Entry scores are raw distances.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errors.New("index name is required")
	case q.VectorField == "":
		return nil, errors.New("vector field is required")
	case len(q.Vector) == 0:
		return nil, errors.New("vector is required")
	case q.K <= 0:
		return nil, errors.New("k must be positive")
	}

	args := []string{q.IndexName, buildKNNQuery(q)}
	if len(q.ReturnFields) > 0 {
		args = appendReturn(args, withScoreField(q.ReturnFields))
	}
	args = append(args,
		"SORTBY", db.VectorScoreField,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	res, err := s.search(ctx, args, false)
	if err != nil {
		return nil, err
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		if v, ok := e.Fields[db.VectorScoreField]; ok {
			if d, err := strconv.ParseFloat(v, 64); err == nil {
				e.Score = d
			}
			delete(e.Fields, db.VectorScoreField)
		}
	}
	return res, nil
}

// SearchBM25 runs a scored full-text query. Entry scores come from WITHSCORES.
func (s *Store) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.TopK <= 0 {
		return nil, errors.New("topK must be positive")
	}
	text := buildTextQuery(q)
	if text == "" {
		return nil, db.ErrNoTerms
	}
	if f := buildFilter(q.Filters); f != "" {
		text = f + " " + text
	}

	args := []string{q.IndexName, text}
	if len(q.ReturnFields) > 0 {
		args = appendReturn(args, q.ReturnFields)
	}
	if q.Scorer != "" {
		args = append(args, "SCORER", q.Scorer)
	}
	args = append(args,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)

	return s.search(ctx, args, true)
}

// SearchCount returns how many documents match query, fetching none of them.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	res, err := s.search(ctx, []string{index, query, "LIMIT", "0", "0"}, false)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (s *Store) search(ctx context.Context, args []string, withScores bool) (*db.SearchResult, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseReply(raw, withScores)
}

func appendReturn(args, fields []string) []string {
	args = append(args, "RETURN", strconv.Itoa(len(fields)))
	return append(args, fields...)
}

func withScoreField(fields []string) []string {
	for _, f := range fields {
		if f == db.VectorScoreField {
			return fields
		}
	}
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields...)
	return append(out, db.VectorScoreField)
}

// parseReply decodes an FT.SEARCH reply:
//
//	[total, key, [field, value, ...], ...]            without scores
//	[total, key, score, [field, value, ...], ...]     WITHSCORES
//
// Entries that fail to decode are skipped.
func parseReply(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	res := &db.SearchResult{}
	if len(raw) == 0 {
		return res, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	res.Total = int(total)

	stride := 2
	if withScores {
		stride = 3
	}
	for i := 1; i+stride <= len(raw); i += stride {
		if e, ok := parseEntry(raw[i:i+stride], withScores); ok {
			res.Entries = append(res.Entries, e)
		}
	}
	return res, nil
}

func parseEntry(msg []rueidis.RedisMessage, withScores bool) (db.SearchEntry, bool) {
	var e db.SearchEntry
	key, err := msg[0].ToString()
	if err != nil {
		return e, false
	}
	e.Key = key

	body := msg[1]
	if withScores {
		raw, err := msg[1].ToString()
		if err != nil {
			return e, false
		}
		if e.Score, err = strconv.ParseFloat(raw, 64); err != nil {
			return e, false
		}
		body = msg[2]
	}

	pairs, err := body.ToArray()
	if err != nil {
		return e, false
	}
	e.Fields = make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr == nil && verr == nil {
			e.Fields[name] = value
		}
	}
	return e, true
}
