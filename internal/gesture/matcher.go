// Package gesture scores hand landmarks against named gesture templates.
package gesture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultSensitivity is the minimum score a gesture needs to be reported.
const DefaultSensitivity = 4

// MaxScore is the score of a perfect match.
const MaxScore = 10.0

// ErrUnknownGesture is returned for names outside the fixed gesture set.
var ErrUnknownGesture = errors.New("unknown gesture")

// Name identifies one of the recognized gestures.
type Name string

const (
	// ThumbsUp is a closed fist with the thumb pointing up.
	ThumbsUp Name = "thumbs_up"
	// Victory is the index and middle fingers spread in a V.
	Victory Name = "victory"
)

// Names lists the recognized gestures in classification order.
var Names = []Name{Victory, ThumbsUp}

// Valid reports whether n is one of the recognized gestures.
func (n Name) Valid() bool {
	return n == ThumbsUp || n == Victory
}

// ParseName converts s into a Name.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGesture, s)
	}
	return n, nil
}

// Score is the confidence of one gesture for a hand.
type Score struct {
	Name  Name    `json:"name"`
	Score float64 `json:"score"`
}

// Estimation is the result of classifying one hand.
type Estimation struct {
	Gestures []Score `json:"gestures"`
}

// Classifier scores a landmark set against its gesture templates. Gestures
// scoring below minScore are omitted from the result.
type Classifier interface {
	Estimate(ctx context.Context, hand *detector.HandLandmarks, minScore float64) (Estimation, error)
}

// Template is a reference hand pose for one gesture.
type Template struct {
	Name      Name
	Landmarks []detector.Point3D // normalized, see HandLandmarks.Normalize
}

// NewTemplate builds a Template from raw landmarks in any coordinate space.
func NewTemplate(name Name, hand detector.HandLandmarks) *Template {
	normalized := hand.Normalize()
	return &Template{
		Name:      name,
		Landmarks: normalized.Points[:],
	}
}

// BuiltinTemplates returns the stock templates for both gestures, in
// classification order.
func BuiltinTemplates() []*Template {
	return []*Template{
		NewTemplate(Victory, detector.VictoryLandmarks()),
		NewTemplate(ThumbsUp, detector.ThumbsUpLandmarks()),
	}
}

// BuiltinLandmarks returns the normalized stock landmarks for name.
func BuiltinLandmarks(name Name) ([]detector.Point3D, error) {
	for _, t := range BuiltinTemplates() {
		if t.Name == name {
			return t.Landmarks, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGesture, name)
}

// TemplateClassifier scores hands by their distance to normalized templates.
// The score is MaxScore/(1+d) where d is the summed per-landmark Euclidean
// distance, so identical poses score MaxScore.
type TemplateClassifier struct {
	mu        sync.RWMutex
	templates []*Template
}

// NewTemplateClassifier creates a classifier with the given templates.
func NewTemplateClassifier(templates ...*Template) *TemplateClassifier {
	c := &TemplateClassifier{
		templates: make([]*Template, 0, len(templates)),
	}
	for _, t := range templates {
		c.SetTemplate(t)
	}
	return c
}

// SetTemplate adds a template or replaces the one with the same name,
// keeping its position.
func (c *TemplateClassifier) SetTemplate(t *Template) {
	if t == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.templates {
		if existing.Name == t.Name {
			c.templates[i] = t
			return
		}
	}
	c.templates = append(c.templates, t)
}

// Templates returns a copy of the registered templates.
func (c *TemplateClassifier) Templates() []*Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Estimate scores hand against every template. Results keep template order.
func (c *TemplateClassifier) Estimate(ctx context.Context, hand *detector.HandLandmarks, minScore float64) (Estimation, error) {
	if err := ctx.Err(); err != nil {
		return Estimation{}, err
	}
	if hand == nil {
		return Estimation{}, nil
	}

	normalized := hand.Normalize()
	input := normalized.Points[:]

	c.mu.RLock()
	defer c.mu.RUnlock()

	var est Estimation
	for _, template := range c.templates {
		if len(template.Landmarks) != detector.NumLandmarks {
			continue
		}
		distance := euclideanDistance(input, template.Landmarks)
		score := MaxScore / (1.0 + distance)

		if score >= minScore {
			est.Gestures = append(est.Gestures, Score{Name: template.Name, Score: score})
		}
	}

	return est, nil
}

// SelectBest returns the highest scoring gesture. Ties go to the earliest
// entry. ok is false for an empty list.
func SelectBest(scores []Score) (best Score, ok bool) {
	for i, s := range scores {
		if i == 0 || s.Score > best.Score {
			best = s
		}
	}
	return best, len(scores) > 0
}

// euclideanDistance calculates the total Euclidean distance between two sets of 3D points.
// It sums the distances between corresponding points in the two slices.
func euclideanDistance(a, b []detector.Point3D) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var totalDist float64
	for i := 0; i < minLen; i++ {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		totalDist += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}

	return totalDist
}
