package lookup

import (
	"errors"
	"testing"

	"fund-valuation/internal/domain"
)

func TestDistance_CandidateAfterQuery(t *testing.T) {
	if d := Distance(2, 5); d != 3 {
		t.Errorf("expected 3, got %d", d)
	}
	if d := Distance(5, 2); d != 3 {
		t.Errorf("expected 3, got %d", d)
	}
}

func TestDistance_Extremes(t *testing.T) {
	if d := Distance(0, ^uint32(0)); d != int64(^uint32(0)) {
		t.Errorf("expected %d, got %d", int64(^uint32(0)), d)
	}
}

func TestNearestIndex_EmptyCandidates(t *testing.T) {
	_, err := NearestIndex(100, nil)
	if !errors.Is(err, ErrEmptyCandidateSet) {
		t.Errorf("expected ErrEmptyCandidateSet, got %v", err)
	}
}

func TestNearestIndex_ExactMatch(t *testing.T) {
	idx, err := NearestIndex(500, []uint32{100, 500, 900})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 {
		t.Errorf("expected 1, got %d", idx)
	}
}

func TestNearestIndex_TieResolvesToFirst(t *testing.T) {
	candidates := []uint32{100, 500, 900}

	// 300 is 200 away from both 100 and 500
	for run := 0; run < 10; run++ {
		idx, err := NearestIndex(300, candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx != 0 {
			t.Fatalf("run %d: expected 0, got %d", run, idx)
		}
	}
}

func TestNearestIndex_TieDescendingCandidates(t *testing.T) {
	// snapshots are stored newest first; the first index scanned still wins
	idx, err := NearestIndex(300, []uint32{900, 500, 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 {
		t.Errorf("expected 1, got %d", idx)
	}
}

func TestNearestIndex_CandidateGreaterThanQuery(t *testing.T) {
	// an unsigned subtraction would make 5 look far away from 2
	idx, err := NearestIndex(2, []uint32{100, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 {
		t.Errorf("expected 1, got %d", idx)
	}
}

func TestMatchNearest(t *testing.T) {
	queries := []uint32{0, 250, 301, 1000}
	candidates := []uint32{100, 500, 900}

	got, err := MatchNearest(queries, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{0, 0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query %d: expected %d, got %d", queries[i], want[i], got[i])
		}
	}
}

func TestMatchNearest_NoQueries(t *testing.T) {
	got, err := MatchNearest(nil, []uint32{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestMatchNearest_EmptyCandidates(t *testing.T) {
	_, err := MatchNearest([]uint32{1, 2}, nil)
	if !errors.Is(err, ErrEmptyCandidateSet) {
		t.Errorf("expected ErrEmptyCandidateSet, got %v", err)
	}
}

func TestPriceAt_EmptySlice(t *testing.T) {
	_, err := PriceAt(1000, nil)
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}
}

func TestPriceAt_BeforeTarget(t *testing.T) {
	rows := []domain.PriceRow{
		{Symbol: "ETH", Timestamp: 1000, USDPrice: 1.0},
		{Symbol: "ETH", Timestamp: 2000, USDPrice: 2.0},
		{Symbol: "ETH", Timestamp: 3000, USDPrice: 3.0},
	}

	// Target 2500 should return price at 2000
	row, err := PriceAt(2500, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.USDPrice != 2.0 {
		t.Errorf("expected 2.0, got %f", row.USDPrice)
	}
}

func TestPriceAt_BeforeFirst(t *testing.T) {
	rows := []domain.PriceRow{
		{Symbol: "ETH", Timestamp: 1000, USDPrice: 1.0},
		{Symbol: "ETH", Timestamp: 2000, USDPrice: 2.0},
	}

	row, err := PriceAt(500, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.USDPrice != 1.0 {
		t.Errorf("expected 1.0, got %f", row.USDPrice)
	}
}

func TestPriceAt_AfterLast(t *testing.T) {
	rows := []domain.PriceRow{
		{Symbol: "ETH", Timestamp: 1000, USDPrice: 1.0},
		{Symbol: "ETH", Timestamp: 2000, USDPrice: 2.0},
	}

	row, err := PriceAt(5000, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.USDPrice != 2.0 {
		t.Errorf("expected 2.0, got %f", row.USDPrice)
	}
}
