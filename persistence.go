// persistence.go - parameter snapshot + MIDI-learn persistence (§6, UI thread only)

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParamSnapshot is the persisted set of parameter target values plus the
// MIDI-learn table. Params is keyed by name rather than the enum's numeric
// value so it survives a ParamID reordering across versions; MIDI entries
// carry the numeric ParamID.
type ParamSnapshot struct {
	Params map[string]float32 `yaml:"params"`
	MIDI   []MIDILearnEntry   `yaml:"midi_learn"`
}

var paramNames = map[ParamID]string{
	ParamTrackGain0: "track_gain_0", ParamTrackGain1: "track_gain_1",
	ParamTrackGain2: "track_gain_2", ParamTrackGain3: "track_gain_3",
	ParamTrackPan0: "track_pan_0", ParamTrackPan1: "track_pan_1",
	ParamTrackPan2: "track_pan_2", ParamTrackPan3: "track_pan_3",
	ParamMonoCollapse: "mono_collapse",
	ParamSliceLength:  "slice_length", ParamSliceScan: "slice_scan",
	ParamVoiceCount: "voice_count", ParamVoiceSpeed: "voice_speed",
	ParamEQLowGain: "eq_low_gain", ParamEQMidGain: "eq_mid_gain", ParamEQHighGain: "eq_high_gain",
	ParamDelayTimeL: "delay_time_l", ParamDelayTimeR: "delay_time_r",
	ParamDelayWet: "delay_wet", ParamDelayFeedback: "delay_feedback",
	ParamGrainDensity: "grain_density", ParamGrainWet: "grain_wet",
	ParamReverbRoom: "reverb_room", ParamReverbDecay: "reverb_decay",
	ParamReverbDamping: "reverb_damping", ParamReverbWet: "reverb_wet",
	ParamFeedbackAmount: "feedback_amount",
	ParamEnv1Tau: "env1_tau", ParamEnv2Tau: "env2_tau", ParamEnv3Tau: "env3_tau",
	ParamSeqRange: "seq_range",
	ParamAnchorX:  "anchor_x", ParamAnchorY: "anchor_y",
	ParamScanPeriod:      "scan_period",
	ParamRecordingActive: "recording_active",

	ParamChan0Enabled: "chan0_enabled", ParamChan0Intensity: "chan0_intensity", ParamChan0Rotation: "chan0_rotation", ParamChan0Curve: "chan0_curve", ParamChan0Pitch: "chan0_pitch",
	ParamChan1Enabled: "chan1_enabled", ParamChan1Intensity: "chan1_intensity", ParamChan1Rotation: "chan1_rotation", ParamChan1Curve: "chan1_curve", ParamChan1Pitch: "chan1_pitch",
	ParamChan2Enabled: "chan2_enabled", ParamChan2Intensity: "chan2_intensity", ParamChan2Rotation: "chan2_rotation", ParamChan2Curve: "chan2_curve", ParamChan2Pitch: "chan2_pitch",
	ParamChan3Enabled: "chan3_enabled", ParamChan3Intensity: "chan3_intensity", ParamChan3Rotation: "chan3_rotation", ParamChan3Curve: "chan3_curve", ParamChan3Pitch: "chan3_pitch",
	ParamBaseHue: "base_hue", ParamColorSchemeFader: "color_scheme_fader", ParamBlendModeFader: "blend_mode_fader",
	ParamBrightness: "brightness", ParamRegionMapEnabled: "region_map_enabled", ParamCameraMix: "camera_mix",
}

var nameToParam = inverseParamNames()

func inverseParamNames() map[string]ParamID {
	m := make(map[string]ParamID, len(paramNames))
	for id, name := range paramNames {
		m[name] = id
	}
	return m
}

// SaveSnapshot writes every parameter's current target plus the MIDI-learn
// table to path as YAML. UI thread only; never called from audio/video/vision.
func SaveSnapshot(path string, ps *ParamStore, midi []MIDILearnEntry) error {
	snap := ParamSnapshot{Params: make(map[string]float32, len(paramNames)), MIDI: midi}
	for id, name := range paramNames {
		snap.Params[name] = ps.Target(id)
	}
	b, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads path and applies every recognized parameter as a
// target update, returning the MIDI-learn table for the caller to keep.
func LoadSnapshot(path string, ps *ParamStore) ([]MIDILearnEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var snap ParamSnapshot
	if err := yaml.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", path, err)
	}
	for name, value := range snap.Params {
		if id, ok := nameToParam[name]; ok {
			ps.SetTarget(id, value)
		}
	}
	return snap.MIDI, nil
}
