package datetime

import "fmt"

// PhaseOfDay is the stage of the alarm. It is one of Default, Dawn or
// SunRise; switch on the concrete type.
type PhaseOfDay interface {
	// Kind is a stable upper-case name of the phase, used in events.
	Kind() string
	fmt.Stringer
	isPhaseOfDay()
}

// Default is the quiescent phase.
type Default struct {
	// LastTriggerDay is the day of month of the last acknowledgement,
	// 0 when the alarm has not been acknowledged yet.
	LastTriggerDay uint8
}

// Dawn is the light ramp before the sunrise.
type Dawn struct {
	ElapsedSinceDawn uint8 // minutes
}

// SunRise is the active alarm, until acknowledged.
type SunRise struct {
	ElapsedSinceSunrise uint8 // minutes
}

func (Default) isPhaseOfDay() {}
func (Dawn) isPhaseOfDay()    {}
func (SunRise) isPhaseOfDay() {}

func (Default) Kind() string { return "DEFAULT" }
func (Dawn) Kind() string    { return "DAWN" }
func (SunRise) Kind() string { return "SUNRISE" }

func (p Default) String() string {
	if p.LastTriggerDay == 0 {
		return "Default day last set None"
	}
	return fmt.Sprintf("Default day last set %d", p.LastTriggerDay)
}

func (p Dawn) String() string {
	return fmt.Sprintf("Dawn since %d min", p.ElapsedSinceDawn)
}

func (p SunRise) String() string {
	return fmt.Sprintf("SunRise since %d min", p.ElapsedSinceSunrise)
}
