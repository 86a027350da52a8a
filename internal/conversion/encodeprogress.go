package conversion

import (
	"strconv"
	"strings"
)

// encodeState accumulates the engine's key=value progress lines and yields
// a completion fraction per "progress" marker.
type encodeState struct {
	clipDuration float64 // seconds of output being encoded
	fps          int

	outTimeUS int64
}

// update consumes one progress line. It returns ok=true on a "progress"
// marker, along with the fraction of the clip encoded so far (0..1) and the
// frames produced.
func (s *encodeState) update(line string) (frac float64, framesDone int, ok bool) {
	kv := strings.SplitN(line, "=", 2)
	if len(kv) != 2 {
		return 0, 0, false
	}
	key := strings.TrimSpace(kv[0])
	val := strings.TrimSpace(kv[1])

	switch key {
	case "out_time_ms":
		// Despite the name, the engine reports microseconds here.
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			s.outTimeUS = v
		}
	case "progress":
		frac = 0
		if s.clipDuration > 0 {
			frac = float64(s.outTimeUS) / (s.clipDuration * 1_000_000)
			if frac > 1 {
				frac = 1
			}
			if frac < 0 {
				frac = 0
			}
		}
		if val == "end" {
			frac = 1
		}
		framesDone = int(float64(s.outTimeUS) / 1_000_000 * float64(s.fps))
		return frac, framesDone, true
	}
	return 0, 0, false
}
