// Aircraft telemetry types matching the simulator bridge file format.
package telemetry

// Snapshot is one complete simulator state at a point in time. It is
// written wholesale by the simulator bridge and never mutated here.
type Snapshot struct {
	Timestamp   int64       `json:"timestamp"`
	Simulator   string      `json:"simulator"`
	Aircraft    string      `json:"aircraft"`
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
	Speed       Speed       `json:"speed"`
	Radios      Radios      `json:"radios"`
	Transponder Transponder `json:"transponder"`
	State       FlightState `json:"state"`
}

// Position holds the aircraft location.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AltMSLM   float64 `json:"altitude_msl_m"`
	AltAGLM   float64 `json:"altitude_agl_m"`
}

// Orientation holds heading and attitude.
type Orientation struct {
	HeadingMag  float64 `json:"heading_mag"`
	HeadingTrue float64 `json:"heading_true"`
	Pitch       float64 `json:"pitch"`
	Roll        float64 `json:"roll"`
}

// Speed holds ground and air speeds.
type Speed struct {
	GroundSpeedMPS   float64 `json:"ground_speed_mps"`
	IASKts           float64 `json:"ias_kts"`
	TASMPS           float64 `json:"tas_mps"`
	VerticalSpeedFPM float64 `json:"vertical_speed_fpm"`
}

// Radios holds tuned COM/NAV frequencies in Hz.
type Radios struct {
	Com1Hz        int `json:"com1_hz"`
	Com1StandbyHz int `json:"com1_standby_hz"`
	Com2Hz        int `json:"com2_hz"`
	Com2StandbyHz int `json:"com2_standby_hz"`
	Nav1Hz        int `json:"nav1_hz"`
	Nav2Hz        int `json:"nav2_hz"`
}

// Transponder holds the squawk code and mode.
type Transponder struct {
	Code int `json:"code"`
	Mode int `json:"mode"`
}

// FlightState holds coarse simulator flags.
type FlightState struct {
	OnGround bool `json:"on_ground"`
	Paused   bool `json:"paused"`
}
