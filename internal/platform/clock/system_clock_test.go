package clock

import (
	"testing"
	"time"
)

func TestSystemClock_Location(t *testing.T) {
	t.Parallel()

	if loc := NewSystemClock().Now().Location(); loc != time.UTC {
		t.Fatalf("NewSystemClock location=%v, want UTC", loc)
	}
	if loc := (SystemClock{}).Now().Location(); loc != time.UTC {
		t.Fatalf("zero SystemClock location=%v, want UTC", loc)
	}

	sast := time.FixedZone("SAST", 2*60*60)
	if loc := NewSystemClockIn(sast).Now().Location(); loc != sast {
		t.Fatalf("NewSystemClockIn location=%v, want %v", loc, sast)
	}
}
