package gesture

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// Trainer turns recorded samples into gesture templates.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Sample is one recorded hand pose.
type Sample struct {
	Landmarks []detector.Point3D `json:"landmarks"`
	Timestamp int64              `json:"timestamp,omitempty"`
}

// Train normalizes every sample and averages them into a single template.
// Every sample must carry exactly NumLandmarks points.
func (t *Trainer) Train(name Name, samples []json.RawMessage) (*Template, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGesture, name)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	var all []*detector.HandLandmarks
	for i, raw := range samples {
		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}

		if len(sample.Landmarks) != detector.NumLandmarks {
			return nil, fmt.Errorf("sample %d has %d landmarks, expected %d", i, len(sample.Landmarks), detector.NumLandmarks)
		}

		var hand detector.HandLandmarks
		copy(hand.Points[:], sample.Landmarks)
		all = append(all, hand.Normalize())
	}

	averaged := make([]detector.Point3D, detector.NumLandmarks)
	n := float64(len(all))

	for i := 0; i < detector.NumLandmarks; i++ {
		var sumX, sumY, sumZ float64
		for _, hand := range all {
			sumX += hand.Points[i].X
			sumY += hand.Points[i].Y
			sumZ += hand.Points[i].Z
		}
		averaged[i] = detector.Point3D{
			X: sumX / n,
			Y: sumY / n,
			Z: sumZ / n,
		}
	}

	return &Template{Name: name, Landmarks: averaged}, nil
}
