package controller

import (
	"time"

	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

// ComputeDigits returns the tube digits for t. The 12 hour format shows 12 for midnight and
// noon and blanks a leading zero of the hour; the 24 hour format never blanks.
func ComputeDigits(t time.Time, twelveHour bool) proto.Digits {
	hour := t.Hour()
	if twelveHour {
		if hour > 12 {
			hour -= 12
		} else if hour == 0 {
			hour = 12
		}
	}

	var d proto.Digits
	d[0], d[1] = proto.Split(hour, twelveHour)
	d[2], d[3] = proto.Split(t.Minute(), false)
	return d
}
