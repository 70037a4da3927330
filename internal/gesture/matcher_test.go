package gesture

import (
	"context"
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func newBuiltinClassifier() *TemplateClassifier {
	return NewTemplateClassifier(BuiltinTemplates()...)
}

func TestTemplateClassifier_ThumbsUp(t *testing.T) {
	classifier := newBuiltinClassifier()

	hand := detector.ThumbsUpLandmarks()
	est, err := classifier.Estimate(context.Background(), &hand, DefaultSensitivity)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	if len(est.Gestures) != 1 {
		t.Fatalf("expected exactly one gesture above sensitivity, got %v", est.Gestures)
	}

	best, ok := SelectBest(est.Gestures)
	if !ok || best.Name != ThumbsUp {
		t.Errorf("expected thumbs_up, got %+v", best)
	}

	// Identical pose scores the maximum
	if best.Score < MaxScore-1e-6 {
		t.Errorf("expected score close to %f, got %f", MaxScore, best.Score)
	}
}

func TestTemplateClassifier_Victory(t *testing.T) {
	classifier := newBuiltinClassifier()

	// Position and scale must not matter
	hand := detector.VictoryLandmarks().WithWristAt(120, 400)
	est, err := classifier.Estimate(context.Background(), &hand, DefaultSensitivity)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	best, ok := SelectBest(est.Gestures)
	if !ok || best.Name != Victory {
		t.Errorf("expected victory, got %+v", est.Gestures)
	}
}

func TestTemplateClassifier_NoMatch(t *testing.T) {
	classifier := newBuiltinClassifier()

	hand := detector.OpenPalmLandmarks()
	est, err := classifier.Estimate(context.Background(), &hand, DefaultSensitivity)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	if len(est.Gestures) != 0 {
		t.Errorf("expected no gestures for open palm, got %v", est.Gestures)
	}
}

func TestTemplateClassifier_MinScoreZeroReportsAll(t *testing.T) {
	classifier := newBuiltinClassifier()

	hand := detector.OpenPalmLandmarks()
	est, _ := classifier.Estimate(context.Background(), &hand, 0)

	if len(est.Gestures) != 2 {
		t.Fatalf("expected both gestures, got %v", est.Gestures)
	}
	// Template order is preserved
	if est.Gestures[0].Name != Victory || est.Gestures[1].Name != ThumbsUp {
		t.Errorf("unexpected order: %v", est.Gestures)
	}
	for _, g := range est.Gestures {
		if !g.Name.Valid() {
			t.Errorf("unexpected gesture name %q", g.Name)
		}
	}
}

func TestTemplateClassifier_NilHand(t *testing.T) {
	classifier := newBuiltinClassifier()

	est, err := classifier.Estimate(context.Background(), nil, DefaultSensitivity)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if len(est.Gestures) != 0 {
		t.Errorf("expected no gestures for nil hand, got %v", est.Gestures)
	}
}

func TestTemplateClassifier_CanceledContext(t *testing.T) {
	classifier := newBuiltinClassifier()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hand := detector.ThumbsUpLandmarks()
	if _, err := classifier.Estimate(ctx, &hand, DefaultSensitivity); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTemplateClassifier_SetTemplate(t *testing.T) {
	classifier := newBuiltinClassifier()

	// Replace the victory template with the open palm pose
	classifier.SetTemplate(NewTemplate(Victory, detector.OpenPalmLandmarks()))

	templates := classifier.Templates()
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates after replace, got %d", len(templates))
	}
	if templates[0].Name != Victory {
		t.Errorf("expected replaced template to keep its position, got %q", templates[0].Name)
	}

	hand := detector.OpenPalmLandmarks()
	est, _ := classifier.Estimate(context.Background(), &hand, DefaultSensitivity)
	best, ok := SelectBest(est.Gestures)
	if !ok || best.Name != Victory {
		t.Errorf("expected open palm to match the replaced victory template, got %v", est.Gestures)
	}

	classifier.SetTemplate(nil)
	if len(classifier.Templates()) != 2 {
		t.Error("nil template should be ignored")
	}
}

func TestTemplateClassifier_SkipsIncompleteTemplates(t *testing.T) {
	classifier := NewTemplateClassifier(&Template{Name: ThumbsUp})

	hand := detector.ThumbsUpLandmarks()
	est, _ := classifier.Estimate(context.Background(), &hand, 0)
	if len(est.Gestures) != 0 {
		t.Errorf("expected template without landmarks to be skipped, got %v", est.Gestures)
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name   string
		scores []Score
		want   Name
		wantOK bool
	}{
		{
			name:   "empty list",
			scores: nil,
			wantOK: false,
		},
		{
			name:   "higher score wins",
			scores: []Score{{ThumbsUp, 0.7}, {Victory, 0.9}},
			want:   Victory,
			wantOK: true,
		},
		{
			name:   "tie goes to first occurrence",
			scores: []Score{{ThumbsUp, 8}, {Victory, 8}},
			want:   ThumbsUp,
			wantOK: true,
		},
		{
			name:   "single entry",
			scores: []Score{{Victory, 4}},
			want:   Victory,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBest(tt.scores)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Name != tt.want {
				t.Errorf("got %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestParseName(t *testing.T) {
	if n, err := ParseName("thumbs_up"); err != nil || n != ThumbsUp {
		t.Errorf("ParseName(thumbs_up) = %q, %v", n, err)
	}
	if n, err := ParseName("victory"); err != nil || n != Victory {
		t.Errorf("ParseName(victory) = %q, %v", n, err)
	}
	if _, err := ParseName("wave"); !errors.Is(err, ErrUnknownGesture) {
		t.Errorf("expected ErrUnknownGesture, got %v", err)
	}
}

func TestBuiltinLandmarks(t *testing.T) {
	landmarks, err := BuiltinLandmarks(ThumbsUp)
	if err != nil {
		t.Fatalf("BuiltinLandmarks() error = %v", err)
	}
	if len(landmarks) != detector.NumLandmarks {
		t.Errorf("expected %d landmarks, got %d", detector.NumLandmarks, len(landmarks))
	}
	if landmarks[detector.Wrist] != (detector.Point3D{}) {
		t.Errorf("expected normalized wrist at origin, got %+v", landmarks[detector.Wrist])
	}

	if _, err := BuiltinLandmarks("fist"); !errors.Is(err, ErrUnknownGesture) {
		t.Errorf("expected ErrUnknownGesture, got %v", err)
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := []detector.Point3D{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}}
	if dist := euclideanDistance(a, a); dist != 0 {
		t.Errorf("expected distance 0 for identical points, got %f", dist)
	}

	c := []detector.Point3D{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}}
	d := []detector.Point3D{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}
	if dist := euclideanDistance(c, d); dist != 1.0 {
		t.Errorf("expected distance 1.0, got %f", dist)
	}

	if dist := euclideanDistance(nil, nil); dist != 0 {
		t.Errorf("expected distance 0 for empty slices, got %f", dist)
	}
}
