package effects

import (
	"time"

	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

const (
	SlotMachineName = "slot_machine"
	DateRevealName  = "date_reveal"

	// SlotMachineStepDelay is how long each spinning value is shown
	SlotMachineStepDelay = 200 * time.Millisecond
	// slotMachineLevel is the brightness used while the slots spin
	slotMachineLevel proto.Level = proto.MaxLevel

	dateBlankHold = time.Second
	dateShiftHold = time.Second
	dateGroupHold = 2 * time.Second
	dateYearHold  = 3 * time.Second
)

// Op is what a step does to the tubes before holding.
type Op uint8

const (
	// OpShow writes Digits (and Level unless LevelUnchanged)
	OpShow Op = iota
	// OpShift shifts Digit in from the right
	OpShift
	// OpHold leaves the tubes as they are
	OpHold
)

// Step is one frame of an effect. The frame is rendered, the watchdog is kicked if Kick is
// set, and the player then waits for Hold before moving on.
type Step struct {
	Op     Op
	Digits proto.Digits
	Digit  proto.Digit
	Level  proto.Level
	Kick   bool
	Hold   time.Duration
}

// Effect is a finite sequence of steps. It is replayed from the start on every Play.
type Effect struct {
	Name  string
	Steps []Step
}

// Duration returns the total hold time of the effect.
func (e Effect) Duration() time.Duration {
	var d time.Duration
	for _, s := range e.Steps {
		d += s.Hold
	}
	return d
}

// SlotMachine spins the tubes through 0-9 and settles them on target one column at a time,
// right to left. Every tube cycles through all cathodes, which prevents cathode poisoning on
// digits that are rarely shown.
func SlotMachine(target proto.Digits) Effect {
	steps := make([]Step, 0, 4*11)
	var slots proto.Digits

	for round := 0; round < len(slots); round++ {
		spinning := len(slots) - round
		for n := proto.Digit(0); n <= 9; n++ {
			for col := 0; col < spinning; col++ {
				slots[col] = n
			}
			steps = append(steps, Step{
				Op:     OpShow,
				Digits: slots,
				Level:  slotMachineLevel,
				Kick:   true,
				Hold:   SlotMachineStepDelay,
			})
		}
		// freeze the rightmost spinning column
		slots[spinning-1] = target[spinning-1]
		steps = append(steps, Step{
			Op:     OpShow,
			Digits: slots,
			Level:  slotMachineLevel,
		})
	}

	return Effect{Name: SlotMachineName, Steps: steps}
}

// DateReveal blanks the tubes, scrolls month and day in from the right, shows the year and
// then restores the given digits. Leading zeros of month and day are blanked.
func DateReveal(date time.Time, restore proto.Digits) Effect {
	monthTens, monthUnits := proto.Split(int(date.Month()), true)
	dayTens, dayUnits := proto.Split(date.Day(), true)

	steps := []Step{
		{Op: OpShow, Digits: proto.AllBlank, Level: proto.LevelUnchanged, Kick: true, Hold: dateBlankHold},
	}
	for _, d := range []proto.Digit{monthTens, monthUnits, dayTens, dayUnits} {
		steps = append(steps, Step{Op: OpShift, Digit: d, Kick: true, Hold: dateShiftHold})
	}
	steps = append(steps,
		Step{Op: OpHold, Hold: dateGroupHold},
		Step{Op: OpShow, Digits: YearDigits(date.Year()), Level: proto.LevelUnchanged, Kick: true, Hold: dateYearHold},
		Step{Op: OpShow, Digits: restore, Level: proto.LevelUnchanged},
	)

	return Effect{Name: DateRevealName, Steps: steps}
}

// YearDigits returns the last four digits of year.
func YearDigits(year int) proto.Digits {
	return proto.Digits{
		proto.Digit(year / 1000 % 10),
		proto.Digit(year / 100 % 10),
		proto.Digit(year / 10 % 10),
		proto.Digit(year % 10),
	}
}
