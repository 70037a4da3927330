package app

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

func newTemplates(t *testing.T) (*Templates, *gesture.TemplateClassifier, *store.Store) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	classifier := gesture.NewTemplateClassifier(gesture.BuiltinTemplates()...)
	return NewTemplates(s, classifier, nil), classifier, s
}

func sampleJSON(t *testing.T, hand detector.HandLandmarks) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(gesture.Sample{Landmarks: hand.Points[:]})
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	return data
}

func TestTemplates_SeedIsIdempotent(t *testing.T) {
	tmpl, _, s := newTemplates(t)

	for i := 0; i < 2; i++ {
		if err := tmpl.Seed(); err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
	}

	gestures, err := s.Gestures().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gestures) != len(gesture.Names) {
		t.Fatalf("expected %d gestures, got %d", len(gesture.Names), len(gestures))
	}
	for _, g := range gestures {
		if g.Source != store.SourceBuiltin {
			t.Errorf("%s: expected builtin source, got %q", g.Name, g.Source)
		}
	}

	info, err := tmpl.Get(gesture.Victory)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(info.Landmarks) != detector.NumLandmarks {
		t.Errorf("expected %d landmarks, got %d", detector.NumLandmarks, len(info.Landmarks))
	}
}

func TestTemplates_TrainHotReloadsClassifier(t *testing.T) {
	tmpl, classifier, _ := newTemplates(t)
	if err := tmpl.Seed(); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	// Teach "victory" to look like an open palm
	palm := detector.OpenPalmLandmarks()
	samples := []json.RawMessage{
		sampleJSON(t, palm),
		sampleJSON(t, palm.Translate(20, -10)),
	}

	info, err := tmpl.Train(gesture.Victory, samples)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if info.Gesture.Source != store.SourceTrained || info.Gesture.Samples != 2 {
		t.Errorf("unexpected gesture after training %+v", info.Gesture)
	}

	est, err := classifier.Estimate(context.Background(), &palm, gesture.DefaultSensitivity)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	best, ok := gesture.SelectBest(est.Gestures)
	if !ok || best.Name != gesture.Victory || best.Score < 9.9 {
		t.Errorf("expected trained victory template to match an open palm, got %+v", best)
	}

	stored, err := tmpl.Samples(gesture.Victory)
	if err != nil || len(stored) != 2 {
		t.Errorf("Samples() = %d, %v", len(stored), err)
	}

	t.Run("survives reload", func(t *testing.T) {
		fresh := gesture.NewTemplateClassifier(gesture.BuiltinTemplates()...)
		reloaded := NewTemplates(tmpl.store, fresh, nil)
		if err := reloaded.Load(); err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		est, _ := fresh.Estimate(context.Background(), &palm, gesture.DefaultSensitivity)
		best, ok := gesture.SelectBest(est.Gestures)
		if !ok || best.Name != gesture.Victory {
			t.Errorf("expected trained template after reload, got %+v", best)
		}
		if n := len(fresh.Templates()); n != 2 {
			t.Errorf("expected 2 templates, got %d", n)
		}
	})

	t.Run("reset restores builtin", func(t *testing.T) {
		info, err := tmpl.Reset(gesture.Victory)
		if err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if info.Gesture.Source != store.SourceBuiltin || info.Gesture.Samples != 0 {
			t.Errorf("unexpected gesture after reset %+v", info.Gesture)
		}

		victory := detector.VictoryLandmarks()
		est, _ := classifier.Estimate(context.Background(), &victory, gesture.DefaultSensitivity)
		best, _ := gesture.SelectBest(est.Gestures)
		if best.Name != gesture.Victory || best.Score < 9.9 {
			t.Errorf("expected builtin victory to match again, got %+v", best)
		}
	})
}

func TestTemplates_TrainRejectsBadSamples(t *testing.T) {
	tmpl, classifier, _ := newTemplates(t)
	tmpl.Seed()
	before := classifier.Templates()

	_, err := tmpl.Train(gesture.ThumbsUp, []json.RawMessage{json.RawMessage(`{"landmarks":[{"x":1,"y":2,"z":3}]}`)})
	if err == nil {
		t.Fatal("expected error for a short sample")
	}

	after := classifier.Templates()
	for i := range before {
		if before[i] != after[i] {
			t.Error("classifier changed after a rejected training")
		}
	}
}

func TestTemplates_UnknownGesture(t *testing.T) {
	tmpl, _, _ := newTemplates(t)

	if _, err := tmpl.Get(gesture.Victory); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound before seeding, got %v", err)
	}
	if _, err := tmpl.Reset(gesture.Name("wave")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown gesture, got %v", err)
	}
}
