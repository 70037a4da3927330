package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func testLandmarks(scale float64) []Landmark {
	out := make([]Landmark, 21)
	for i := range out {
		out[i] = Landmark{X: float64(i) * scale, Y: -float64(i) * scale, Z: 0.01 * float64(i)}
	}
	return out
}

func createGesture(t *testing.T, s *Store, id, name string) *Gesture {
	t.Helper()

	g := &Gesture{ID: id, Name: name}
	if err := s.Gestures().Create(g, testLandmarks(1)); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	return g
}

func TestGestureRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := createGesture(t, s, "g-1", "thumbs_up")

	if g.CreatedAt.IsZero() || g.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}
	if g.Source != SourceBuiltin {
		t.Errorf("expected default source builtin, got %q", g.Source)
	}

	retrieved, err := repo.GetByID("g-1")
	if err != nil {
		t.Fatalf("failed to get gesture by ID: %v", err)
	}
	if retrieved.Name != "thumbs_up" || retrieved.Source != SourceBuiltin || retrieved.Samples != 0 {
		t.Errorf("unexpected gesture %+v", retrieved)
	}

	landmarks, err := repo.GetLandmarks("g-1")
	if err != nil {
		t.Fatalf("GetLandmarks() error = %v", err)
	}
	if len(landmarks) != 21 {
		t.Fatalf("expected 21 landmarks, got %d", len(landmarks))
	}
	if landmarks[20] != testLandmarks(1)[20] {
		t.Errorf("landmark order not preserved: %+v", landmarks[20])
	}
}

func TestGestureRepository_RejectsUnknownNames(t *testing.T) {
	s := newTestStore(t)

	err := s.Gestures().Create(&Gesture{ID: "g-1", Name: "wave"}, nil)
	if err == nil {
		t.Fatal("expected names outside the supported set to be rejected")
	}
}

func TestGestureRepository_RejectsDuplicateNames(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "g-1", "victory")

	if err := s.Gestures().Create(&Gesture{ID: "g-2", Name: "victory"}, nil); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
}

func TestGestureRepository_GetByName(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "g-1", "victory")

	g, err := s.Gestures().GetByName("victory")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if g.ID != "g-1" {
		t.Errorf("expected g-1, got %s", g.ID)
	}

	if _, err := s.Gestures().GetByName("thumbs_up"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Gestures().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGestureRepository_List(t *testing.T) {
	s := newTestStore(t)

	gestures, err := s.Gestures().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gestures) != 0 {
		t.Fatalf("expected empty list, got %d", len(gestures))
	}

	createGesture(t, s, "g-1", "victory")
	createGesture(t, s, "g-2", "thumbs_up")

	gestures, err = s.Gestures().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gestures) != 2 {
		t.Fatalf("expected 2 gestures, got %d", len(gestures))
	}
	if gestures[0].Name != "thumbs_up" || gestures[1].Name != "victory" {
		t.Errorf("expected name order, got %s, %s", gestures[0].Name, gestures[1].Name)
	}
}

func TestGestureRepository_SetLandmarks(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()
	createGesture(t, s, "g-1", "victory")

	if err := repo.SetLandmarks("g-1", testLandmarks(2), SourceTrained); err != nil {
		t.Fatalf("SetLandmarks() error = %v", err)
	}

	landmarks, _ := repo.GetLandmarks("g-1")
	if len(landmarks) != 21 || landmarks[3].X != 6 {
		t.Errorf("landmarks not replaced: %+v", landmarks)
	}

	g, _ := repo.GetByID("g-1")
	if g.Source != SourceTrained {
		t.Errorf("expected source trained, got %q", g.Source)
	}

	if err := repo.SetLandmarks("missing", testLandmarks(1), SourceTrained); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGestureRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()
	createGesture(t, s, "g-1", "victory")

	samples := []json.RawMessage{json.RawMessage(`{"landmarks":[]}`)}
	if err := s.Samples().Train("g-1", samples, testLandmarks(1)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	if err := repo.Delete("g-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("g-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	var count int
	s.DB().QueryRow("SELECT COUNT(*) FROM gesture_landmarks").Scan(&count)
	if count != 0 {
		t.Errorf("expected landmarks to cascade, %d left", count)
	}
	s.DB().QueryRow("SELECT COUNT(*) FROM gesture_samples").Scan(&count)
	if count != 0 {
		t.Errorf("expected samples to cascade, %d left", count)
	}
}

func TestSampleRepository_TrainAndReset(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "g-1", "thumbs_up")

	samples := []json.RawMessage{
		json.RawMessage(`{"landmarks":[{"x":1}]}`),
		json.RawMessage(`{"landmarks":[{"x":2}]}`),
	}

	t.Run("train stores samples and template", func(t *testing.T) {
		if err := s.Samples().Train("g-1", samples, testLandmarks(3)); err != nil {
			t.Fatalf("Train() error = %v", err)
		}

		stored, err := s.Samples().GetByGestureID("g-1")
		if err != nil {
			t.Fatalf("GetByGestureID() error = %v", err)
		}
		if len(stored) != 2 || stored[1].SampleIndex != 1 {
			t.Fatalf("unexpected samples %+v", stored)
		}
		if string(stored[0].Data) != `{"landmarks":[{"x":1}]}` {
			t.Errorf("sample data not preserved: %s", stored[0].Data)
		}

		g, _ := s.Gestures().GetByID("g-1")
		if g.Samples != 2 || g.Source != SourceTrained {
			t.Errorf("unexpected gesture after train %+v", g)
		}
	})

	t.Run("retrain replaces previous samples", func(t *testing.T) {
		if err := s.Samples().Train("g-1", samples[:1], testLandmarks(3)); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		stored, _ := s.Samples().GetByGestureID("g-1")
		if len(stored) != 1 {
			t.Errorf("expected 1 sample after retrain, got %d", len(stored))
		}
	})

	t.Run("reset restores builtin", func(t *testing.T) {
		if err := s.Samples().Reset("g-1", testLandmarks(1)); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}

		stored, _ := s.Samples().GetByGestureID("g-1")
		if len(stored) != 0 {
			t.Errorf("expected samples to be dropped, got %d", len(stored))
		}

		g, _ := s.Gestures().GetByID("g-1")
		if g.Samples != 0 || g.Source != SourceBuiltin {
			t.Errorf("unexpected gesture after reset %+v", g)
		}

		landmarks, _ := s.Gestures().GetLandmarks("g-1")
		if landmarks[3].X != 3 {
			t.Errorf("builtin landmarks not restored: %+v", landmarks[3])
		}
	})

	t.Run("unknown gesture", func(t *testing.T) {
		if err := s.Samples().Train("missing", samples, testLandmarks(1)); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
