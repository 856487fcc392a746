package detector

import (
	"encoding/json"

	"github.com/aprilgo/apriltag/internal/geom"
)

// Detection is one accepted tag observation: bit-exact field naming per
// the external interface contract.
type Detection struct {
	Family         string
	ID             int
	Hamming        int
	Goodness       float64
	DecisionMargin float64
	H              geom.Homography // row-major 3x3
	Center         geom.Point
	Corners        [4]geom.Point // CCW, corner[0] canonical top-left
}

// detectionJSON is the wire representation; field names match the
// spec's bit-exact naming (family, id, hamming, goodness,
// decision_margin, H, c, p).
type detectionJSON struct {
	Family         string        `json:"family"`
	ID             int           `json:"id"`
	Hamming        int           `json:"hamming"`
	Goodness       float64       `json:"goodness"`
	DecisionMargin float64       `json:"decision_margin"`
	H              [3][3]float64 `json:"H"`
	C              [2]float64    `json:"c"`
	P              [4][2]float64 `json:"p"`
}

// MarshalJSON renders the detection using the spec's bit-exact field
// names rather than Go's exported field names.
func (d Detection) MarshalJSON() ([]byte, error) {
	out := detectionJSON{
		Family:         d.Family,
		ID:             d.ID,
		Hamming:        d.Hamming,
		Goodness:       d.Goodness,
		DecisionMargin: d.DecisionMargin,
		H:              [3][3]float64(d.H),
		C:              [2]float64{d.Center.X, d.Center.Y},
	}
	for i, p := range d.Corners {
		out.P[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire representation back into a Detection.
func (d *Detection) UnmarshalJSON(data []byte) error {
	var in detectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Family = in.Family
	d.ID = in.ID
	d.Hamming = in.Hamming
	d.Goodness = in.Goodness
	d.DecisionMargin = in.DecisionMargin
	d.H = geom.Homography(in.H)
	d.Center = geom.Point{X: in.C[0], Y: in.C[1]}
	for i, p := range in.P {
		d.Corners[i] = geom.Point{X: p[0], Y: p[1]}
	}
	return nil
}

// MarshalDetections is a convenience wrapper producing an indented JSON
// array, matching the CLI's output format.
func MarshalDetections(dets []Detection) ([]byte, error) {
	return json.MarshalIndent(dets, "", "  ")
}
