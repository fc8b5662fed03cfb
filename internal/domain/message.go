package domain

// ConfigMessage is the only inbound control message. Unknown types are ignored.
type ConfigMessage struct {
	Type       string `json:"type"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	RoomID     string `json:"roomId"`
	VoiceName  string `json:"voiceName,omitempty"`
}

// TranscriptMessage is delivered to every room member for each utterance.
// IsLocal marks the copy echoed to the speaker.
type TranscriptMessage struct {
	Type       string `json:"type"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
	IsLocal    bool   `json:"isLocal"`
	Timestamp  string `json:"timestamp"`
}
