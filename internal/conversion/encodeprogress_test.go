package conversion

import "testing"

func TestEncodeStateProgress(t *testing.T) {
	st := &encodeState{clipDuration: 3, fps: 10}

	// Non-marker lines accumulate without yielding.
	if _, _, ok := st.update("frame=15"); ok {
		t.Fatal("frame line must not yield")
	}
	if _, _, ok := st.update("out_time_ms=1500000"); ok {
		t.Fatal("out_time_ms line must not yield")
	}

	// The engine reports microseconds in out_time_ms: 1.5s of a 3s clip.
	frac, frames, ok := st.update("progress=continue")
	if !ok {
		t.Fatal("progress marker must yield")
	}
	if frac != 0.5 {
		t.Fatalf("frac = %v, want 0.5", frac)
	}
	if frames != 15 {
		t.Fatalf("frames = %d, want 15", frames)
	}

	st.update("out_time_ms=3000000")
	frac, frames, ok = st.update("progress=end")
	if !ok || frac != 1 || frames != 30 {
		t.Fatalf("end marker: frac=%v frames=%d ok=%v", frac, frames, ok)
	}
}

func TestEncodeStateOvershootClamped(t *testing.T) {
	st := &encodeState{clipDuration: 2, fps: 10}
	st.update("out_time_ms=2500000")
	frac, _, ok := st.update("progress=continue")
	if !ok || frac != 1 {
		t.Fatalf("overshoot not clamped: frac=%v", frac)
	}
}

func TestEncodeStateEndWithoutDuration(t *testing.T) {
	st := &encodeState{clipDuration: 0, fps: 10}
	frac, _, ok := st.update("progress=end")
	if !ok || frac != 1 {
		t.Fatalf("end must report completion even without a duration: %v", frac)
	}
}

func TestEncodeStateGarbage(t *testing.T) {
	st := &encodeState{clipDuration: 3, fps: 10}
	for _, line := range []string{"", "no equals sign", "out_time_ms=notanumber", "speed=1.2x"} {
		if _, _, ok := st.update(line); ok {
			t.Fatalf("line %q yielded", line)
		}
	}
	// Garbage must not corrupt the accumulated time.
	st.update("out_time_ms=1500000")
	st.update("out_time_ms=bogus")
	frac, _, _ := st.update("progress=continue")
	if frac != 0.5 {
		t.Fatalf("frac = %v after garbage, want 0.5", frac)
	}
}
