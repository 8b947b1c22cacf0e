package atc

import (
	"fmt"
	"strings"

	"stratus-atc/internal/telemetry"
)

const (
	metersToFeet = 3.28084
	mpsToKnots   = 1.94384

	// Below this MSL altitude an airborne aircraft is treated as pattern traffic.
	patternAltitudeFt = 1000
)

// Flight phase labels used in prompts and as cache partitions.
const (
	PhaseGround  = "on the ground"
	PhasePattern = "in the pattern"
	PhaseFlight  = "in flight"
)

// AltitudeFt converts the snapshot's MSL altitude to whole feet.
func AltitudeFt(snap telemetry.Snapshot) int {
	return int(snap.Position.AltMSLM * metersToFeet)
}

// GroundSpeedKts converts the snapshot's ground speed to whole knots.
func GroundSpeedKts(snap telemetry.Snapshot) int {
	return int(snap.Speed.GroundSpeedMPS * mpsToKnots)
}

// FlightPhase classifies the snapshot into a coarse phase of flight.
func FlightPhase(snap telemetry.Snapshot) string {
	switch {
	case snap.State.OnGround:
		return PhaseGround
	case AltitudeFt(snap) < patternAltitudeFt:
		return PhasePattern
	default:
		return PhaseFlight
	}
}

const systemPromptFormat = `You are an FAA Air Traffic Controller. Respond with proper ATC phraseology.

AIRCRAFT: %s (%s)
POSITION: %s at %d ft MSL, heading %d°, %d kts
SQUAWK: %04d

RULES:
1. Use standard FAA phraseology
2. Be concise - real ATC is brief
3. Include callsign in every transmission
4. If unclear, ask pilot to "say again"

Respond ONLY with what ATC would say. No explanations.`

// buildPrompt renders the instruction template with telemetry-derived
// context, the recent conversation, and the pilot's transmission.
func buildPrompt(callsign, aircraftType string, snap telemetry.Snapshot, history []Entry, pilotText string) string {
	system := fmt.Sprintf(systemPromptFormat,
		callsign,
		aircraftType,
		FlightPhase(snap),
		AltitudeFt(snap),
		int(snap.Orientation.HeadingMag),
		GroundSpeedKts(snap),
		snap.Transponder.Code,
	)

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nCONVERSATION:\n")
	for _, e := range history {
		b.WriteString(string(e.Speaker))
		b.WriteString(": ")
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	b.WriteString("PILOT: ")
	b.WriteString(pilotText)
	b.WriteString("\nATC:")
	return b.String()
}
