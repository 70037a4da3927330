package app

import "github.com/ayusman/mudra/internal/gesture"

// Element is the on-screen object moved by the tracked wrist.
type Element interface {
	// Translate positions the element at the given offset from its origin.
	Translate(x, y float64)
}

// StatusView displays the most recently recognized gesture. name is empty
// until a gesture has been recognized; icon is empty for unmapped names.
type StatusView interface {
	ShowStatus(name gesture.Name, icon string)
}

// StatusViews fans a status out to several views.
type StatusViews []StatusView

// ShowStatus implements StatusView.
func (vs StatusViews) ShowStatus(name gesture.Name, icon string) {
	for _, v := range vs {
		if v != nil {
			v.ShowStatus(name, icon)
		}
	}
}
