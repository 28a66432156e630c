package detection

import (
	"context"
	"testing"

	"github.com/angelmondragon/fridge-monitor/pkg/enums"
)

func TestInferExactLabel(t *testing.T) {
	d := NewStubDetector(nil)
	for _, id := range []string{"eggs", "EGGS", "Eggs"} {
		got, err := d.Infer(context.Background(), id)
		if err != nil {
			t.Fatalf("infer %q: %v", id, err)
		}
		if len(got) != 1 {
			t.Fatalf("infer %q expected 1 detection, got %d", id, len(got))
		}
		if got[0].Label != "eggs" || got[0].Category != enums.CategoryProtein || got[0].Confidence != 0.95 {
			t.Fatalf("unexpected detection %+v", got[0])
		}
		if len(got[0].BBox) != 4 || got[0].BBox[0] != 0.1 {
			t.Fatalf("unexpected bbox %v", got[0].BBox)
		}
	}
}

func TestInferHashedIdentifiers(t *testing.T) {
	cases := []struct {
		id     string
		labels []string
	}{
		{"photo.jpg", []string{"tomato", "sauce", "asian pear"}},
		{"fridge-shot", []string{"leafy green", "cucumber", "leftovers"}},
		{"IMG_0001", []string{"soda", "orange", "tomato"}},
		{"", []string{"eggs", "asian pear", "leafy green"}},
	}
	wantConf := []float64{0.78, 0.84, 0.9}
	wantX := []float64{0.1, 0.3, 0.5}

	d := NewStubDetector(nil)
	for _, tc := range cases {
		got, err := d.Infer(context.Background(), tc.id)
		if err != nil {
			t.Fatalf("infer %q: %v", tc.id, err)
		}
		if len(got) != len(tc.labels) {
			t.Fatalf("infer %q expected %d detections, got %d", tc.id, len(tc.labels), len(got))
		}
		for i, det := range got {
			if det.Label != tc.labels[i] {
				t.Fatalf("infer %q detection %d expected %q got %q", tc.id, i, tc.labels[i], det.Label)
			}
			if det.Confidence != wantConf[i] {
				t.Fatalf("infer %q detection %d expected confidence %v got %v", tc.id, i, wantConf[i], det.Confidence)
			}
			if det.BBox[0] != wantX[i] {
				t.Fatalf("infer %q detection %d expected bbox x %v got %v", tc.id, i, wantX[i], det.BBox[0])
			}
		}
	}
}

func TestInferIsDeterministic(t *testing.T) {
	d := NewStubDetector(nil)
	a, _ := d.Infer(context.Background(), "scan42")
	b, _ := d.Infer(context.Background(), "scan42")
	if len(a) != len(b) {
		t.Fatalf("expected stable output")
	}
	for i := range a {
		if a[i].Label != b[i].Label || a[i].Confidence != b[i].Confidence {
			t.Fatalf("detection %d differs between calls", i)
		}
	}
}

func TestInferDedupesLabels(t *testing.T) {
	// With two labels, offsets 0, 7 and 19 collide onto the same indices.
	d := NewStubDetector([]Label{
		{Name: "milk", Category: enums.CategoryDairy},
		{Name: "bread", Category: enums.CategoryGrains},
	})
	got, err := d.Infer(context.Background(), "photo.jpg")
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 unique detections, got %d", len(got))
	}
	if got[0].Label == got[1].Label {
		t.Fatalf("labels should be unique: %+v", got)
	}
}

func TestHash(t *testing.T) {
	if got := Hash("image"); got != 100313435 {
		t.Fatalf("unexpected hash %d", got)
	}
	if got := Hash("photo.jpg"); got != 3445840421 {
		t.Fatalf("unexpected hash %d", got)
	}
}

func TestInferHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStubDetector(nil).Infer(ctx, "eggs"); err == nil {
		t.Fatalf("expected context error")
	}
}
