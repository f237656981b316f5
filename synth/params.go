package synth

import "github.com/cwbudde/theremotion/controls"

// DefaultParams returns the parameter table of the instrument.
func DefaultParams() []controls.Param {
	params := []controls.Param{
		{Path: controls.PathNote, Min: 0, Max: 127, Init: 60},
		{Path: controls.PathRawNote, Min: 0, Max: 127, Init: 60},
		{Path: controls.PathAutotuneStrength, Min: 0, Max: 5, Init: 0},
		{Path: controls.PathVolume, Min: -60, Max: 0, Init: -60},
		{Path: controls.PathCutoffNote, Min: -24, Max: 48, Init: 12},
		{Path: controls.PathResonance, Min: 0.5, Max: 12, Init: 0.7},
		{Path: controls.PathSupersaw, Min: 0, Max: 1, Init: 0.3},
		{Path: controls.PathDetune, Min: 0, Max: 0.5, Init: 0.1},
		{Path: controls.PathSubVolume, Min: 0, Max: 1, Init: 0.3},
		{Path: controls.PathBend, Min: -2, Max: 2, Init: 0},
		{Path: controls.PathMute, Min: 0, Max: 1, Init: 0},
		{Path: controls.PathDroneNote, Min: 0, Max: 127, Init: 36},
		{Path: controls.PathDroneVolume, Min: 0, Max: 1, Init: 0},
		{Path: controls.PathPluckPosition, Min: 0.05, Max: 0.95, Init: 0.2},
		{Path: controls.PathPluckDamping, Min: 0, Max: 1, Init: 0.2},
	}
	for i := range controls.NumVoices {
		params = append(params,
			controls.Param{Path: controls.VoiceNotePath(i), Min: 0, Max: 127, Init: 60},
			controls.Param{Path: controls.VoicePluckPath(i), Min: 0, Max: 1, Init: 0},
		)
	}
	return params
}
