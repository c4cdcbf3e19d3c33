package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/bamdow/folio/internal/gravity"
)

// Layout is a machine-readable record of one headless settle run.
type Layout struct {
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Steps     int                `json:"steps"`
	SettledAt float64            `json:"settled_at"`
	Metrics   map[string]float64 `json:"metrics"`
	Bodies    []BodyPose         `json:"bodies"`
	Energy    []float64          `json:"energy,omitempty"`
}

type BodyPose struct {
	Ref    string  `json:"ref"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
}

// BodyPoses flattens bodies into their exported form.
func BodyPoses(bodies []gravity.Body) []BodyPose {
	out := make([]BodyPose, len(bodies))
	for i, b := range bodies {
		out[i] = BodyPose{
			Ref:    b.Ref,
			Left:   b.Pin.Left,
			Top:    b.Pin.Top,
			Width:  b.Pin.Width,
			Height: b.Pin.Height,
			X:      b.Pose.X,
			Y:      b.Pose.Y,
			Angle:  b.Pose.Angle,
		}
	}
	return out
}

func WriteLayout(w io.Writer, l Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// LayoutJSON writes l to path, or to stdout when path is "-".
func LayoutJSON(path string, l Layout) error {
	if path == "-" {
		return WriteLayout(os.Stdout, l)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteLayout(file, l)
}
