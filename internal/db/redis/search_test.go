package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/mapletenders/tenderindex/internal/db"
	"github.com/mapletenders/tenderindex/internal/domain/search/filter"
)

func expectSearch(t *testing.T, reply rueidis.RedisResult) (*Store, *[]string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	captured := new([]string)
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			*captured = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(reply)
	return NewStoreForTest(c), captured
}

func knnQuery() *db.KNNQuery {
	return &db.KNNQuery{
		IndexName:   "tenders:idx",
		VectorField: "embedding",
		Vector:      []float32{0.1, 0.2},
		K:           10,
	}
}

func TestSearchKNN_ReturnsRawDistance(t *testing.T) {
	s, _ := expectSearch(t, mock.Result(mock.RedisArray(
		mock.RedisInt64(1),
		mock.RedisString("tenders:doc:T-1"),
		mock.RedisArray(
			mock.RedisString("__vector_score"), mock.RedisString("0.25"),
			mock.RedisString("title"), mock.RedisString("Snow removal"),
		),
	)))

	res, err := s.SearchKNN(context.Background(), knnQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("expected one entry, got total %d entries %d", res.Total, len(res.Entries))
	}
	e := res.Entries[0]
	if e.Key != "tenders:doc:T-1" || e.Score != 0.25 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("score field should be stripped from fields")
	}
	if e.Fields["title"] != "Snow removal" {
		t.Errorf("unexpected fields: %v", e.Fields)
	}
}

func TestSearchKNN_CommandShape(t *testing.T) {
	s, captured := expectSearch(t, mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	cond, _ := filter.NewMatch("tender_status", "active", "open")
	expr, _ := filter.NewExpression([]filter.Condition{cond}, nil, nil)
	q := knnQuery()
	q.Filters = expr
	q.K = 50
	q.ReturnFields = []string{"title"}

	if _, err := s.SearchKNN(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd := *captured
	wantQuery := "(@tender_status:{active | open})=>[KNN 50 @embedding $BLOB AS __vector_score]"
	if cmd[1] != "tenders:idx" || cmd[2] != wantQuery {
		t.Fatalf("unexpected command head: %v", cmd[:3])
	}
	assertArgs(t, cmd[3:7], []string{"RETURN", "2", "title", "__vector_score"})
	assertArgs(t, cmd[7:12], []string{"SORTBY", "__vector_score", "LIMIT", "0", "50"})
	assertContains(t, cmd, "DIALECT")
}

func TestSearchKNN_Unfiltered(t *testing.T) {
	s, captured := expectSearch(t, mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	res, err := s.SearchKNN(context.Background(), knnQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(res.Entries))
	}
	if got := (*captured)[2]; got != "*=>[KNN 10 @embedding $BLOB AS __vector_score]" {
		t.Errorf("unexpected query %q", got)
	}
	for _, a := range *captured {
		if a == "RETURN" {
			t.Error("RETURN should be omitted without return fields")
		}
	}
}

func TestSearchKNN_Error(t *testing.T) {
	s, _ := expectSearch(t, mock.ErrorResult(context.DeadlineExceeded))

	_, err := s.SearchKNN(context.Background(), knnQuery())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *db.KNNQuery)
	}{
		{"no index", func(q *db.KNNQuery) { q.IndexName = "" }},
		{"no vector field", func(q *db.KNNQuery) { q.VectorField = "" }},
		{"no vector", func(q *db.KNNQuery) { q.Vector = nil }},
		{"zero k", func(q *db.KNNQuery) { q.K = 0 }},
	}
	s := &Store{}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := knnQuery()
			tc.mutate(q)
			if _, err := s.SearchKNN(context.Background(), q); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSearchBM25_ParsesScores(t *testing.T) {
	s, captured := expectSearch(t, mock.Result(mock.RedisArray(
		mock.RedisInt64(2),
		mock.RedisString("tenders:doc:T-1"),
		mock.RedisString("7.5"),
		mock.RedisArray(mock.RedisString("title"), mock.RedisString("Road repair")),
		mock.RedisString("tenders:doc:T-2"),
		mock.RedisString("3.25"),
		mock.RedisArray(),
	)))

	res, err := s.SearchBM25(context.Background(), &db.TextQuery{
		IndexName: "tenders:idx",
		Query:     "road repair",
		MatchAny:  true,
		Scorer:    "BM25STD",
		TopK:      100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (*captured)[2] != "(road | repair)" {
		t.Errorf("unexpected query %q", (*captured)[2])
	}
	assertContains(t, *captured, "BM25STD")
	assertContains(t, *captured, "WITHSCORES")

	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
	if res.Entries[0].Score != 7.5 || res.Entries[1].Score != 3.25 {
		t.Errorf("unexpected scores: %v %v", res.Entries[0].Score, res.Entries[1].Score)
	}
	if res.Entries[0].Fields["title"] != "Road repair" {
		t.Errorf("unexpected fields: %v", res.Entries[0].Fields)
	}
}

func TestSearchBM25_FilterPrefix(t *testing.T) {
	s, captured := expectSearch(t, mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	cond, _ := filter.NewMatch("notice_type", "RFP")
	expr, _ := filter.NewExpression([]filter.Condition{cond}, nil, nil)
	_, err := s.SearchBM25(context.Background(), &db.TextQuery{
		IndexName: "tenders:idx",
		Query:     "bridge",
		Fields:    []string{"title"},
		Filters:   expr,
		TopK:      5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := (*captured)[2]; got != "@notice_type:{RFP} @title:(bridge)" {
		t.Errorf("unexpected query %q", got)
	}
}

func TestSearchBM25_Validation(t *testing.T) {
	tests := []struct {
		name string
		q    db.TextQuery
	}{
		{"no index", db.TextQuery{Query: "x", TopK: 10}},
		{"zero topK", db.TextQuery{IndexName: "idx", Query: "x"}},
		{"empty query", db.TextQuery{IndexName: "idx", TopK: 10}},
		{"punctuation only", db.TextQuery{IndexName: "idx", Query: "!!! ---", TopK: 10}},
	}
	s := &Store{}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.SearchBM25(context.Background(), &tc.q); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSearchBM25_NoTermsSentinel(t *testing.T) {
	s := &Store{}
	q := &db.TextQuery{IndexName: "idx", Query: "!!! ---", TopK: 10}
	if _, err := s.SearchBM25(context.Background(), q); !errors.Is(err, db.ErrNoTerms) {
		t.Errorf("expected ErrNoTerms, got %v", err)
	}
}

func TestSearchCount(t *testing.T) {
	tests := []struct {
		name  string
		reply rueidis.RedisResult
		want  int
	}{
		{"total", mock.Result(mock.RedisArray(mock.RedisInt64(42))), 42},
		{"empty reply", mock.Result(mock.RedisArray()), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, captured := expectSearch(t, tc.reply)
			n, err := s.SearchCount(context.Background(), "tenders:idx", "*")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tc.want {
				t.Errorf("expected %d, got %d", tc.want, n)
			}
			assertArgs(t, *captured, []string{"FT.SEARCH", "tenders:idx", "*", "LIMIT", "0", "0"})
		})
	}
}

func TestParseReply_SkipsMalformedEntries(t *testing.T) {
	raw := []rueidis.RedisMessage{
		mock.RedisInt64(2),
		mock.RedisString("tenders:doc:T-1"),
		mock.RedisString("not-a-score"),
		mock.RedisArray(),
		mock.RedisString("tenders:doc:T-2"),
		mock.RedisString("1.5"),
		mock.RedisArray(),
	}

	res, err := parseReply(raw, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 || len(res.Entries) != 1 || res.Entries[0].Key != "tenders:doc:T-2" {
		t.Errorf("unexpected result: %+v", res)
	}
}
