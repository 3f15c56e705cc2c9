package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownZoneShape is returned when a zones_detection payload matches no known shape.
	ErrUnknownZoneShape = errors.New("unknown detection zone shape")
	// ErrInvalidZone is returned when a known shape carries unusable geometry.
	ErrInvalidZone = errors.New("invalid detection zone")
	// ErrInvalidTimeRange is returned for hour ranges outside [0,24] or reversed.
	ErrInvalidTimeRange = errors.New("invalid time range")
)

// ZoneShape tags which variant a DetectionZone holds.
type ZoneShape string

const (
	ShapeNone      ZoneShape = ""
	ShapeRectangle ZoneShape = "rectangle"
	ShapePaths     ZoneShape = "paths" // legacy free-hand export, decoded read-only
)

// Hour bounds of the detection time range slider.
const (
	MinHour = 0
	MaxHour = 24
)

// FullDay is the default range when a payload carries none.
var FullDay = TimeRange{MinHour, MaxHour}

// TimeRange is an hour-of-day range [start, end].
type TimeRange [2]int

func (t TimeRange) Start() int { return t[0] }
func (t TimeRange) End() int   { return t[1] }

// Validate checks 0 <= start <= end <= 24.
func (t TimeRange) Validate() error {
	if t[0] < MinHour || t[1] > MaxHour || t[0] > t[1] {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidTimeRange, t[0], t[1])
	}
	return nil
}

// Contains reports whether alerts are active during the given hour.
func (t TimeRange) Contains(hour int) bool {
	return hour >= t[0] && hour < t[1]
}

func (t TimeRange) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", t[0], t[1])
}

// ParseTimeRange reads "8-18" or "08:00-18:00".
func ParseTimeRange(s string) (TimeRange, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("%w: %q, expected START-END", ErrInvalidTimeRange, s)
	}
	var tr TimeRange
	for i, p := range parts {
		p = strings.TrimSuffix(strings.TrimSpace(p), ":00")
		h, err := strconv.Atoi(p)
		if err != nil {
			return TimeRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimeRange, s, err)
		}
		tr[i] = h
	}
	return tr, tr.Validate()
}

// Rect is an axis-aligned zone in captured-still pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether the rectangle lies inside a w x h image.
func (r Rect) Within(w, h int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= w && r.Y+r.Height <= h
}

// ParseRect reads "x,y,w,h".
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("%w: rect %q, expected x,y,width,height", ErrInvalidZone, s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("%w: rect %q: %v", ErrInvalidZone, s, err)
		}
		v[i] = n
	}
	r := Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Empty() {
		return Rect{}, fmt.Errorf("%w: rect %q has no area", ErrInvalidZone, s)
	}
	return r, nil
}

// Point is one sample of a free-hand stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is one stroke of the legacy sketch-canvas export.
type Path struct {
	DrawMode    bool    `json:"drawMode"`
	StrokeColor string  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Points      []Point `json:"paths"`
}

// DetectionZone marks where and when motion alerts are active.
// Exactly one of Rect or Paths is set, according to Shape.
type DetectionZone struct {
	Shape ZoneShape
	Rect  *Rect
	Paths []Path
	Hours TimeRange
}

// NewRectZone builds the zone written by the configurator.
func NewRectZone(r Rect, hours TimeRange) *DetectionZone {
	return &DetectionZone{Shape: ShapeRectangle, Rect: &r, Hours: hours}
}

// Validate checks the geometry of the held variant and the hour range.
func (z DetectionZone) Validate() error {
	switch z.Shape {
	case ShapeNone:
		return nil
	case ShapeRectangle:
		if z.Rect == nil || z.Rect.Empty() {
			return fmt.Errorf("%w: rectangle has no area", ErrInvalidZone)
		}
	case ShapePaths:
		points := 0
		for _, p := range z.Paths {
			points += len(p.Points)
		}
		if points == 0 {
			return fmt.Errorf("%w: no strokes", ErrInvalidZone)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownZoneShape, z.Shape)
	}
	return z.Hours.Validate()
}

type rectZoneJSON struct {
	Shape     ZoneShape `json:"shape"`
	Rect      Rect      `json:"rect"`
	TimeRange TimeRange `json:"time_range"`
}

type pathsZoneJSON struct {
	Shape       ZoneShape `json:"shape"`
	DrawingData []Path    `json:"drawingData"`
	TimeRange   TimeRange `json:"time_range"`
}

// MarshalJSON writes the tagged wire form. An empty zone is written as {}.
func (z DetectionZone) MarshalJSON() ([]byte, error) {
	switch z.Shape {
	case ShapeNone:
		return []byte("{}"), nil
	case ShapeRectangle:
		if z.Rect == nil {
			return nil, fmt.Errorf("%w: rectangle zone without rect", ErrInvalidZone)
		}
		return json.Marshal(rectZoneJSON{Shape: ShapeRectangle, Rect: *z.Rect, TimeRange: z.Hours})
	case ShapePaths:
		return json.Marshal(pathsZoneJSON{Shape: ShapePaths, DrawingData: z.Paths, TimeRange: z.Hours})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownZoneShape, z.Shape)
	}
}

// UnmarshalJSON accepts the tagged form, the legacy {"drawingData": [...]} export and a bare
// {x, y, width, height} rectangle. Anything else fails with ErrUnknownZoneShape.
// Geometry and hours are not validated here: stored zones must stay readable so they can be
// replaced. Writers call Validate.
func (z *DetectionZone) UnmarshalJSON(data []byte) error {
	*z = DetectionZone{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownZoneShape, err)
	}
	if len(raw) == 0 {
		return nil
	}

	z.Hours = FullDay
	if tr, ok := raw["time_range"]; ok {
		if err := json.Unmarshal(tr, &z.Hours); err != nil {
			return fmt.Errorf("%w: time_range: %v", ErrInvalidTimeRange, err)
		}
	}

	var shape ZoneShape
	if s, ok := raw["shape"]; ok {
		if err := json.Unmarshal(s, &shape); err != nil {
			return fmt.Errorf("%w: shape: %v", ErrUnknownZoneShape, err)
		}
	}

	switch {
	case shape == ShapeRectangle:
		var r Rect
		if err := json.Unmarshal(raw["rect"], &r); err != nil {
			return fmt.Errorf("%w: rect: %v", ErrInvalidZone, err)
		}
		z.Shape, z.Rect = ShapeRectangle, &r
	case shape == ShapePaths || (shape == ShapeNone && raw["drawingData"] != nil):
		if err := json.Unmarshal(raw["drawingData"], &z.Paths); err != nil {
			return fmt.Errorf("%w: drawingData: %v", ErrInvalidZone, err)
		}
		// Saving without drawing exported an empty list.
		if len(z.Paths) == 0 {
			z.Paths = nil
			return nil
		}
		z.Shape = ShapePaths
	case shape == ShapeNone && hasKeys(raw, "x", "y", "width", "height"):
		var r Rect
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("%w: rect: %v", ErrInvalidZone, err)
		}
		z.Shape, z.Rect = ShapeRectangle, &r
	default:
		return fmt.Errorf("%w: shape %q with keys %v", ErrUnknownZoneShape, shape, keysOf(raw))
	}
	return nil
}

func hasKeys(raw map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := raw[k]; !ok {
			return false
		}
	}
	return true
}

func keysOf(raw map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
