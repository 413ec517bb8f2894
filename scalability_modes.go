package mediasoup

import (
	"fmt"
	"regexp"
	"strconv"
)

var scalabilityModeRegex = regexp.MustCompile(`^[LS]([1-9][0-9]?)T([1-9][0-9]?)(_KEY)?`)

// ScalabilityMode is the decoded form of strings such as "L1T3" or "S3T3_KEY".
type ScalabilityMode struct {
	SpatialLayers  int  `json:"spatialLayers"`
	TemporalLayers int  `json:"temporalLayers"`
	Ksvc           bool `json:"ksvc"`
}

// DefaultScalabilityMode is what ParseScalabilityMode returns for input it
// cannot decode.
var DefaultScalabilityMode = ScalabilityMode{SpatialLayers: 1, TemporalLayers: 1}

// ParseScalabilityMode never fails: empty or malformed modes, and modes with a
// zero layer count, yield DefaultScalabilityMode.
func ParseScalabilityMode(mode string) ScalabilityMode {
	m := scalabilityModeRegex.FindStringSubmatch(mode)
	if m == nil {
		return DefaultScalabilityMode
	}
	spatial, _ := strconv.Atoi(m[1])
	temporal, _ := strconv.Atoi(m[2])

	return ScalabilityMode{
		SpatialLayers:  spatial,
		TemporalLayers: temporal,
		Ksvc:           m[3] != "",
	}
}

func (m ScalabilityMode) String() string {
	s := fmt.Sprintf("L%dT%d", m.SpatialLayers, m.TemporalLayers)
	if m.Ksvc {
		s += "_KEY"
	}
	return s
}
