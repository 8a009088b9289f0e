package app

// Status lines shown to the user.
const (
	StatusOpened          = "Opened"
	StatusClosePrefix     = "Close:"
	StatusRequestingMic   = "Requesting microphone access..."
	StatusMicGranted      = "Microphone access granted. Starting capture..."
	StatusRecording       = "🔴 Recording... Capturing PCM chunks."
	StatusErrorPrefix     = "Error: "
	StatusStopping        = "Stopping recording..."
	StatusStopped         = "Recording stopped. Click Start to begin again."
	StatusSessionCleared  = "Session cleared."
	previewMessagePrefix  = "Previewing voice: "
	maxStatusHistory      = 20
	maxTranscriptSegments = 50
)

// Controls reports which buttons are usable.
type Controls struct {
	ResetDisabled bool `json:"resetDisabled"`
	StartDisabled bool `json:"startDisabled"`
	StopDisabled  bool `json:"stopDisabled"`
}

// controlsFor derives button availability from the recording flag.
func controlsFor(recording bool) Controls {
	return Controls{
		ResetDisabled: recording,
		StartDisabled: recording,
		StopDisabled:  !recording,
	}
}

// Role identifies who a transcript segment belongs to.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// TranscriptSegment is a run of consecutive transcript text from one side.
type TranscriptSegment struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// State is a snapshot of the client.
type State struct {
	Recording         bool                `json:"isRecording"`
	Status            string              `json:"status"`
	Error             string              `json:"error"`
	Display           string              `json:"display"`
	SettingsOpen      bool                `json:"settingsOpen"`
	SystemInstruction string              `json:"systemInstruction"`
	Voice             string              `json:"voice"`
	Connected         bool                `json:"connected"`
	SessionID         string              `json:"sessionId,omitempty"`
	Controls          Controls            `json:"controls"`
	StatusHistory     []string            `json:"statusHistory"`
	Transcript        []TranscriptSegment `json:"transcript,omitempty"`
}

// appendTranscript merges text into the last segment when the role matches.
func appendTranscript(segs []TranscriptSegment, role Role, text string) []TranscriptSegment {
	if text == "" {
		return segs
	}
	if n := len(segs); n > 0 && segs[n-1].Role == role {
		segs[n-1].Text += text
		return segs
	}
	segs = append(segs, TranscriptSegment{Role: role, Text: text})
	if len(segs) > maxTranscriptSegments {
		segs = segs[len(segs)-maxTranscriptSegments:]
	}
	return segs
}
