package render

import (
	"image/color"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Named colors used by the skeleton.
var (
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Gold   = color.RGBA{R: 255, G: 215, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	Purple = color.RGBA{R: 128, G: 0, B: 128, A: 255}
	Blue   = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Orange = color.RGBA{R: 255, G: 165, B: 0, A: 255}
)

// Bone stroke settings.
const (
	BoneWidth = 4
)

// BoneColor is the stroke color of every finger segment.
var BoneColor = Gold

// Finger is the chain of landmark indices from the wrist to a fingertip.
type Finger struct {
	Name   string
	Joints [5]int
}

// Fingers is the hand topology, drawn in this order.
var Fingers = [5]Finger{
	{Name: "thumb", Joints: [5]int{detector.Wrist, detector.ThumbCMC, detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip}},
	{Name: "index", Joints: [5]int{detector.Wrist, detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip}},
	{Name: "middle", Joints: [5]int{detector.Wrist, detector.MiddleMCP, detector.MiddlePIP, detector.MiddleDIP, detector.MiddleTip}},
	{Name: "ring", Joints: [5]int{detector.Wrist, detector.RingMCP, detector.RingPIP, detector.RingDIP, detector.RingTip}},
	{Name: "pinky", Joints: [5]int{detector.Wrist, detector.PinkyMCP, detector.PinkyPIP, detector.PinkyDIP, detector.PinkyTip}},
}

// JointStyle is how a landmark marker is drawn.
type JointStyle struct {
	Color  color.RGBA
	Radius int
}

// Styles maps every landmark index to its marker. The wrist and the base of
// each finger get a distinct color; every other joint is a small gold dot.
var Styles = [detector.NumLandmarks]JointStyle{
	detector.Wrist:     {Yellow, 15},
	detector.ThumbCMC:  {Gold, 6},
	detector.ThumbMCP:  {Green, 10},
	detector.ThumbIP:   {Gold, 6},
	detector.ThumbTip:  {Gold, 6},
	detector.IndexMCP:  {Purple, 10},
	detector.IndexPIP:  {Gold, 6},
	detector.IndexDIP:  {Gold, 6},
	detector.IndexTip:  {Gold, 6},
	detector.MiddleMCP: {Blue, 10},
	detector.MiddlePIP: {Gold, 6},
	detector.MiddleDIP: {Gold, 6},
	detector.MiddleTip: {Gold, 6},
	detector.RingMCP:   {Red, 10},
	detector.RingPIP:   {Gold, 6},
	detector.RingDIP:   {Gold, 6},
	detector.RingTip:   {Gold, 6},
	detector.PinkyMCP:  {Orange, 10},
	detector.PinkyPIP:  {Gold, 6},
	detector.PinkyDIP:  {Gold, 6},
	detector.PinkyTip:  {Gold, 6},
}

// StatusIcons maps a gesture to the icon shown while it is the current status.
var StatusIcons = map[gesture.Name]string{
	gesture.ThumbsUp: "/icons/thumbs_up.svg",
	gesture.Victory:  "/icons/victory.svg",
}

// IconFor returns the icon path for status, or "" when nothing should be shown.
func IconFor(status gesture.Name) string {
	return StatusIcons[status]
}
