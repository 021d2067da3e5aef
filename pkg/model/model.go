// Package model contains the shared data types for the audio engine.
package model

import "time"

// Category classifies what kind of exercise a recording belongs to.
type Category string

const (
	CategoryVocabulary    Category = "vocabulary"
	CategoryDialogue      Category = "dialogue"
	CategoryPronunciation Category = "pronunciation"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryVocabulary, CategoryDialogue, CategoryPronunciation:
		return true
	}
	return false
}

// VoicePreference expresses a caller's voice gender preference.
// An empty preference is treated as PreferAuto.
type VoicePreference string

const (
	PreferFemale VoicePreference = "female"
	PreferMale   VoicePreference = "male"
	PreferAuto   VoicePreference = "auto"
)

// VoiceCategory is the gender category of a synthetic voice.
type VoiceCategory string

const (
	VoiceFemale VoiceCategory = "female"
	VoiceMale   VoiceCategory = "male"
)

// VoiceProfile is a named synthetic voice identity from the static catalog.
type VoiceProfile struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    VoiceCategory `json:"category"`
}

// AudioAsset is a persisted recording: a text string paired with a playable
// audio URL and voice metadata. Assets are never mutated after creation.
// The (text, voice) pair is deliberately not unique; readers resolve
// duplicates by picking the greatest CreatedAt.
type AudioAsset struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AudioURL  string    `json:"audio_url"`
	VoiceID   string    `json:"voice_id"`
	VoiceName string    `json:"voice_name"`
	Category  Category  `json:"category"`
	LessonID  string    `json:"lesson_id,omitempty"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}
