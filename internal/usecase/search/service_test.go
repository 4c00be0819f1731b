package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/search/request"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
)

func TestQuery_BlendsBranches(t *testing.T) {
	repo := &mockRepo{
		knnResults: []result.Candidate{
			{ID: "T-1", Score: 0.2, Title: "Highway maintenance"},
			{ID: "T-3", Score: 0.0, Title: "Bridge inspection"},
		},
		bm25Results: []result.Candidate{
			{ID: "T-1", Score: 5, Title: "Highway maintenance"},
			{ID: "T-2", Score: 2, Description: "Snow removal on the highway maintenance yard"},
		},
	}
	svc := newTestService(repo, &mockIndex{exists: true}, &mockEmbedder{vec: []float32{0.1}})

	out := svc.Query(context.Background(), mustRequest(t, "highway maintenance", request.Filters{}, 0))

	if out.Degraded != nil {
		t.Fatalf("unexpected degraded: %v", out.Degraded)
	}
	if len(out.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out.Results))
	}

	want := []struct {
		id    string
		score float64
		expl  string
	}{
		{"T-1", 0.6*1.8 + 0.4*5, result.ExplainTitle},
		{"T-3", 0.6 * 2, result.ExplainSemantic},
		{"T-2", 0.4 * 2, result.ExplainDescription},
	}
	for i, w := range want {
		got := out.Results[i]
		if got.ID() != w.id {
			t.Errorf("[%d] expected %s, got %s", i, w.id, got.ID())
		}
		if math.Abs(got.Score()-w.score) > 1e-9 {
			t.Errorf("[%d] expected score %f, got %f", i, w.score, got.Score())
		}
		if got.Explanation() != w.expl {
			t.Errorf("[%d] expected %q, got %q", i, w.expl, got.Explanation())
		}
	}
}

func TestQuery_SameFiltersOnBothBranches(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockIndex{exists: true}, &mockEmbedder{vec: []float32{0.1}})

	f := request.Filters{Regions: []string{"Ontario"}, NoticeTypes: []string{"RFP"}}
	svc.Query(context.Background(), mustRequest(t, "roads", f, 5))

	if !repo.knnCalled || !repo.bm25Called {
		t.Fatal("expected both branches to run")
	}
	if len(repo.knnFilters.Must()) != len(repo.bm25Filters.Must()) {
		t.Errorf("branches got different filters: %d vs %d",
			len(repo.knnFilters.Must()), len(repo.bm25Filters.Must()))
	}
	// regions + notice type + default status
	if len(repo.knnFilters.Must()) != 3 {
		t.Errorf("expected 3 must conditions, got %d", len(repo.knnFilters.Must()))
	}
	if repo.bm25Query != "roads" {
		t.Errorf("expected raw query on lexical branch, got %q", repo.bm25Query)
	}
	if repo.knnTopK != DefaultCandidates {
		t.Errorf("expected topK %d, got %d", DefaultCandidates, repo.knnTopK)
	}
}

func TestQuery_Truncates(t *testing.T) {
	var knn []result.Candidate
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		knn = append(knn, result.Candidate{ID: id, Score: 0.5})
	}
	repo := &mockRepo{knnResults: knn}
	svc := newTestService(repo, &mockIndex{exists: true}, &mockEmbedder{vec: []float32{0.1}})

	out := svc.Query(context.Background(), mustRequest(t, "x", request.Filters{}, 5))

	if len(out.Results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(out.Results))
	}
	// equal scores, no closing dates: id order
	if out.Results[0].ID() != "a" || out.Results[4].ID() != "e" {
		t.Errorf("unexpected order: %s..%s", out.Results[0].ID(), out.Results[4].ID())
	}
}

func TestQuery_LexicalHitOutsideKNNPool(t *testing.T) {
	// Query vector [1,0]; cosines: C .9, B .8, A .5. The KNN pool of two misses A.
	repo := &mockRepo{
		knnResults: []result.Candidate{
			{ID: "C", Score: 0.1},
			{ID: "B", Score: 0.2},
		},
		bm25Results: []result.Candidate{
			{ID: "A", Score: 10, Embedding: []float32{0.5, float32(math.Sqrt(0.75))}},
			{ID: "B", Score: 8, Embedding: []float32{0.8, 0.6}},
		},
	}
	svc := New(repo, &mockIndex{exists: true}, &mockEmbedder{vec: []float32{1, 0}}, 2, nil)

	out := svc.Query(context.Background(), mustRequest(t, "culvert", request.Filters{}, 2))

	if out.Degraded != nil {
		t.Fatalf("unexpected degraded: %v", out.Degraded)
	}
	if repo.knnTopK != 2 {
		t.Errorf("expected KNN pool of 2, got %d", repo.knnTopK)
	}
	want := []struct {
		id    string
		score float64
	}{
		{"A", 0.6*1.5 + 0.4*10},
		{"B", 0.6*1.8 + 0.4*8},
	}
	if len(out.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(out.Results))
	}
	for i, w := range want {
		got := out.Results[i]
		if got.ID() != w.id || math.Abs(got.Score()-w.score) > 1e-6 {
			t.Errorf("[%d] expected %s %.3f, got %s %.3f", i, w.id, w.score, got.ID(), got.Score())
		}
	}
}

func TestQuery_IndexMissingCreatesIt(t *testing.T) {
	repo := &mockRepo{}
	idx := &mockIndex{exists: false}
	svc := newTestService(repo, idx, &mockEmbedder{vec: []float32{0.1}})

	out := svc.Query(context.Background(), mustRequest(t, "x", request.Filters{}, 0))

	if out.Degraded != nil {
		t.Fatalf("expected ok outcome, got %v", out.Degraded)
	}
	if !out.IndexCreated {
		t.Error("expected IndexCreated")
	}
	if len(out.Results) != 0 {
		t.Errorf("expected empty results, got %d", len(out.Results))
	}
	if idx.ensureCall != 1 {
		t.Errorf("expected 1 EnsureSchema call, got %d", idx.ensureCall)
	}
	if repo.knnCalled || repo.bm25Called {
		t.Error("expected no retrieval on a fresh index")
	}
}

func TestQuery_Degraded(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		repo *mockRepo
		idx  *mockIndex
		emb  *mockEmbedder
	}{
		{"exists check", &mockRepo{}, &mockIndex{existsErr: boom}, &mockEmbedder{}},
		{"create index", &mockRepo{}, &mockIndex{ensureErr: boom}, &mockEmbedder{}},
		{"embed", &mockRepo{}, &mockIndex{exists: true}, &mockEmbedder{err: boom}},
		{"knn", &mockRepo{knnErr: boom}, &mockIndex{exists: true}, &mockEmbedder{}},
		{"bm25", &mockRepo{bm25Err: boom}, &mockIndex{exists: true}, &mockEmbedder{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(tc.repo, tc.idx, tc.emb)
			req := mustRequest(t, "x", request.Filters{}, 0)

			out := svc.Query(context.Background(), req)
			if !errors.Is(out.Degraded, boom) {
				t.Fatalf("expected degraded by boom, got %v", out.Degraded)
			}
			if len(out.Results) != 0 {
				t.Errorf("expected empty results, got %d", len(out.Results))
			}

			if got := svc.Search(context.Background(), req); got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil list at the boundary, got %v", got)
			}
		})
	}
}

func TestSearch_NoMatchesIsNotDegraded(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockIndex{exists: true}, &mockEmbedder{vec: []float32{0.1}})

	out := svc.Query(context.Background(), mustRequest(t, "x", request.Filters{}, 0))

	if out.Degraded != nil {
		t.Fatalf("expected ok, got %v", out.Degraded)
	}
	if len(out.Results) != 0 {
		t.Errorf("expected no results, got %d", len(out.Results))
	}
}

func TestQuery_RecordsEmbeddingUsage(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockIndex{exists: true}, &mockEmbedder{vec: []float32{0.1}, tokens: 7})
	ctx, usage := domain.NewContextWithUsage(context.Background())

	svc.Query(ctx, mustRequest(t, "roads", request.Filters{}, 0))

	if !usage.Used || usage.TotalTokens != 7 {
		t.Errorf("expected 7 tokens recorded, got %+v", usage)
	}
}
