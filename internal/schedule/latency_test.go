package schedule

import "testing"

func TestInitialDepth(t *testing.T) {
	w := NewLatencyWindow()
	if d := w.Depth(); d != 40 {
		t.Fatalf("initial depth = %d, want 40", d)
	}
}

func TestSingleSampleP95IsThatSample(t *testing.T) {
	w := NewLatencyWindow()
	depth := w.Observe(30)
	if p := w.P95(); p != 30 {
		t.Fatalf("p95 = %d, want 30", p)
	}
	if depth != 45 {
		t.Fatalf("depth = %d, want 45", depth)
	}
}

func TestDepthClampLow(t *testing.T) {
	w := NewLatencyWindow()
	if depth := w.Observe(0); depth != 15 {
		// 0 + 15 margin is already above the floor.
		t.Fatalf("depth = %d, want 15", depth)
	}
}

func TestDepthClampHigh(t *testing.T) {
	w := NewLatencyWindow()
	if depth := w.Observe(5000); depth != 300 {
		t.Fatalf("depth = %d, want 300", depth)
	}
}

func TestWindowTrimsToLimit(t *testing.T) {
	w := NewLatencyWindow()
	for i := 0; i < 250; i++ {
		w.Observe(int64(i))
	}
	if n := w.Len(); n != 200 {
		t.Fatalf("window len = %d, want 200", n)
	}
	// Oldest trimmed first: the window now holds 50..249.
	hist := w.History(200)
	if hist[0] != 50 {
		t.Fatalf("oldest sample = %d, want 50", hist[0])
	}
}

func TestP95Index(t *testing.T) {
	w := NewLatencyWindow()
	// 20 samples 1..20 sorted; index floor(0.95*19) = 18 → value 19.
	for i := int64(1); i <= 20; i++ {
		w.Observe(i)
	}
	if p := w.P95(); p != 19 {
		t.Fatalf("p95 = %d, want 19", p)
	}
}

func TestP95IgnoresArrivalOrder(t *testing.T) {
	w := NewLatencyWindow()
	for _, s := range []int64{90, 10, 50, 20, 70} {
		w.Observe(s)
	}
	// sorted {10,20,50,70,90}, index floor(0.95*4) = 3 → 70.
	if p := w.P95(); p != 70 {
		t.Fatalf("p95 = %d, want 70", p)
	}
}

func TestAvgAndHistory(t *testing.T) {
	w := NewLatencyWindow()
	for _, s := range []int64{10, 20, 30} {
		w.Observe(s)
	}
	if avg := w.Avg(); avg != 20 {
		t.Fatalf("avg = %v, want 20", avg)
	}
	hist := w.History(2)
	if len(hist) != 2 || hist[0] != 20 || hist[1] != 30 {
		t.Fatalf("history = %v, want [20 30]", hist)
	}
}
