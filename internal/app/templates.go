package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// ErrInvalidSamples is returned by Train when the samples cannot be turned
// into a template.
var ErrInvalidSamples = errors.New("invalid samples")

// TemplateInfo describes the stored template of one gesture.
type TemplateInfo struct {
	Gesture   *store.Gesture
	Landmarks []detector.Point3D
}

// Templates keeps the stored gesture templates and the live classifier in
// sync.
type Templates struct {
	store      *store.Store
	classifier *gesture.TemplateClassifier
	trainer    *gesture.Trainer
	logger     *slog.Logger
}

// NewTemplates creates a Templates service. A nil logger uses
// slog.Default().
func NewTemplates(s *store.Store, classifier *gesture.TemplateClassifier, logger *slog.Logger) *Templates {
	if logger == nil {
		logger = slog.Default()
	}
	return &Templates{
		store:      s,
		classifier: classifier,
		trainer:    gesture.NewTrainer(),
		logger:     logger,
	}
}

// Seed stores the built-in template of every gesture that has no row yet.
func (t *Templates) Seed() error {
	for _, tmpl := range gesture.BuiltinTemplates() {
		_, err := t.store.Gestures().GetByName(string(tmpl.Name))
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("look up gesture %s: %w", tmpl.Name, err)
		}

		g := &store.Gesture{
			ID:     uuid.New().String(),
			Name:   string(tmpl.Name),
			Source: store.SourceBuiltin,
		}
		if err := t.store.Gestures().Create(g, toStore(tmpl.Landmarks)); err != nil {
			return fmt.Errorf("seed gesture %s: %w", tmpl.Name, err)
		}
		t.logger.Info("seeded built-in gesture template", "gesture", tmpl.Name)
	}
	return nil
}

// Load pushes every stored template into the classifier. Templates with
// the wrong number of landmarks are skipped with a warning.
func (t *Templates) Load() error {
	gestures, err := t.store.Gestures().List()
	if err != nil {
		return fmt.Errorf("list gestures: %w", err)
	}

	loaded := 0
	for _, g := range gestures {
		name, err := gesture.ParseName(g.Name)
		if err != nil {
			t.logger.Warn("skipping unknown gesture", "gesture", g.Name)
			continue
		}

		landmarks, err := t.store.Gestures().GetLandmarks(g.ID)
		if err != nil {
			return fmt.Errorf("load landmarks for %s: %w", g.Name, err)
		}
		if len(landmarks) != detector.NumLandmarks {
			t.logger.Warn("skipping incomplete gesture template",
				"gesture", g.Name, "landmarks", len(landmarks))
			continue
		}

		t.classifier.SetTemplate(&gesture.Template{Name: name, Landmarks: fromStore(landmarks)})
		loaded++
	}

	t.logger.Info("loaded gesture templates", "count", loaded)
	return nil
}

// List returns every stored gesture.
func (t *Templates) List() ([]*store.Gesture, error) {
	return t.store.Gestures().List()
}

// Get returns the stored gesture and its template landmarks.
func (t *Templates) Get(name gesture.Name) (*TemplateInfo, error) {
	g, err := t.store.Gestures().GetByName(string(name))
	if err != nil {
		return nil, err
	}

	landmarks, err := t.store.Gestures().GetLandmarks(g.ID)
	if err != nil {
		return nil, err
	}

	return &TemplateInfo{Gesture: g, Landmarks: fromStore(landmarks)}, nil
}

// Samples returns the recorded samples of a gesture.
func (t *Templates) Samples(name gesture.Name) ([]store.Sample, error) {
	g, err := t.store.Gestures().GetByName(string(name))
	if err != nil {
		return nil, err
	}
	return t.store.Samples().GetByGestureID(g.ID)
}

// Train averages samples into a new template for name, stores it and
// swaps it into the classifier.
func (t *Templates) Train(name gesture.Name, samples []json.RawMessage) (*TemplateInfo, error) {
	g, err := t.store.Gestures().GetByName(string(name))
	if err != nil {
		return nil, err
	}

	tmpl, err := t.trainer.Train(name, samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSamples, err)
	}

	if err := t.store.Samples().Train(g.ID, samples, toStore(tmpl.Landmarks)); err != nil {
		return nil, fmt.Errorf("store trained template: %w", err)
	}

	t.classifier.SetTemplate(tmpl)
	t.logger.Info("trained gesture template", "gesture", name, "samples", len(samples))

	return t.Get(name)
}

// Reset drops the recorded samples of name and restores its built-in
// template.
func (t *Templates) Reset(name gesture.Name) (*TemplateInfo, error) {
	g, err := t.store.Gestures().GetByName(string(name))
	if err != nil {
		return nil, err
	}

	builtin, err := gesture.BuiltinLandmarks(name)
	if err != nil {
		return nil, err
	}

	if err := t.store.Samples().Reset(g.ID, toStore(builtin)); err != nil {
		return nil, fmt.Errorf("restore built-in template: %w", err)
	}

	t.classifier.SetTemplate(&gesture.Template{Name: name, Landmarks: builtin})
	t.logger.Info("restored built-in gesture template", "gesture", name)

	return t.Get(name)
}

func toStore(points []detector.Point3D) []store.Landmark {
	out := make([]store.Landmark, len(points))
	for i, p := range points {
		out[i] = store.Landmark{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

func fromStore(landmarks []store.Landmark) []detector.Point3D {
	out := make([]detector.Point3D, len(landmarks))
	for i, l := range landmarks {
		out[i] = detector.Point3D{X: l.X, Y: l.Y, Z: l.Z}
	}
	return out
}
