// Package voice holds the static registry of synthetic voice identities.
package voice

import "voxlingo/pkg/model"

// profiles is the process-wide static voice list. The order matters: the
// first female voice is the default for the "auto" preference.
var profiles = []model.VoiceProfile{
	{
		ID:          "EXAVITQu4vr4xnSDxMaL",
		Name:        "Sarah",
		Description: "Warm, clear female voice suited to vocabulary drills",
		Category:    model.VoiceFemale,
	},
	{
		ID:          "21m00Tcm4TlvDq8ikWAM",
		Name:        "Rachel",
		Description: "Calm female narrator voice",
		Category:    model.VoiceFemale,
	},
	{
		ID:          "TxGEqnHWrfWFTfGW9XjX",
		Name:        "Josh",
		Description: "Deep male voice for dialogue exercises",
		Category:    model.VoiceMale,
	},
	{
		ID:          "pNInz6obpgDQGcFmaJgB",
		Name:        "Adam",
		Description: "Neutral male voice",
		Category:    model.VoiceMale,
	},
}

// All returns a copy of the full catalog.
func All() []model.VoiceProfile {
	out := make([]model.VoiceProfile, len(profiles))
	copy(out, profiles)
	return out
}

// ByID looks up a voice by its provider ID.
func ByID(id string) (model.VoiceProfile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return model.VoiceProfile{}, false
}

// ByPreference selects a voice for the given preference. "auto" and the
// empty preference select the default female voice.
func ByPreference(pref model.VoicePreference) model.VoiceProfile {
	want := model.VoiceFemale
	if pref == model.PreferMale {
		want = model.VoiceMale
	}
	for _, p := range profiles {
		if p.Category == want {
			return p
		}
	}
	// The catalog always carries at least one voice.
	return profiles[0]
}
