package app

import (
	"sync"
	"time"
)

// TurnMetrics tracks one model turn. Latencies are measured from when the
// user's speech was recognized.
type TurnMetrics struct {
	SpeechEndTime    time.Time `json:"-"`
	FirstAudioTime   time.Time `json:"-"`
	ResponseDoneTime time.Time `json:"-"`

	FirstAudio   time.Duration `json:"first_audio_ns"`
	TotalLatency time.Duration `json:"total_latency_ns"`

	AudioChunksOut int  `json:"audio_chunks_out"`
	Interrupted    bool `json:"interrupted"`
}

// Metrics is the session-wide view.
type Metrics struct {
	Sessions       int64 `json:"sessions"`
	ChunksSent     int64 `json:"chunks_sent"`
	BytesSent      int64 `json:"bytes_sent"`
	ChunksReceived int64 `json:"chunks_received"`
	BytesReceived  int64 `json:"bytes_received"`
	Interruptions  int64 `json:"interruptions"`
	Turns          int64 `json:"turns"`
	Errors         int64 `json:"errors"`

	Current         TurnMetrics   `json:"current"`
	AvgFirstAudio   time.Duration `json:"avg_first_audio_ns"`
	AvgTotalLatency time.Duration `json:"avg_total_latency_ns"`
}

// MetricsCollector collects counters and per-turn latency.
// It is goroutine-safe and can be used from multiple callbacks.
type MetricsCollector struct {
	mu      sync.Mutex
	totals  Metrics
	current TurnMetrics
	history []TurnMetrics
	now     func() time.Time
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]TurnMetrics, 0, 100),
		now:     time.Now,
	}
}

// SessionOpened counts a session.
func (m *MetricsCollector) SessionOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.Sessions++
}

// ChunkSent counts one captured chunk sent to the model.
func (m *MetricsCollector) ChunkSent(bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.ChunksSent++
	m.totals.BytesSent += int64(bytes)
}

// MarkSpeechEnd records when the user's speech was recognized. This is the
// reference point for the turn's latencies; only the first mark of a turn
// counts.
func (m *MetricsCollector) MarkSpeechEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.SpeechEndTime.IsZero() && m.current.FirstAudioTime.IsZero() {
		m.current.SpeechEndTime = m.now()
	}
}

// AudioReceived counts model audio and marks first audio for the turn.
func (m *MetricsCollector) AudioReceived(bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.ChunksReceived++
	m.totals.BytesReceived += int64(bytes)
	m.current.AudioChunksOut++
	if m.current.FirstAudioTime.IsZero() {
		m.current.FirstAudioTime = m.now()
		if !m.current.SpeechEndTime.IsZero() {
			m.current.FirstAudio = m.current.FirstAudioTime.Sub(m.current.SpeechEndTime)
		}
	}
}

// MarkInterrupted records a barge-in and archives the turn.
func (m *MetricsCollector) MarkInterrupted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.Interruptions++
	m.current.Interrupted = true
	m.archiveLocked()
}

// MarkResponseDone records when the model finished its turn.
func (m *MetricsCollector) MarkResponseDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archiveLocked()
}

// MarkError counts a transport error.
func (m *MetricsCollector) MarkError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.Errors++
}

func (m *MetricsCollector) archiveLocked() {
	if m.current.AudioChunksOut == 0 && m.current.SpeechEndTime.IsZero() {
		m.current = TurnMetrics{}
		return
	}
	m.current.ResponseDoneTime = m.now()
	if !m.current.SpeechEndTime.IsZero() {
		m.current.TotalLatency = m.current.ResponseDoneTime.Sub(m.current.SpeechEndTime)
	}
	m.totals.Turns++
	m.history = append(m.history, m.current)
	if len(m.history) > 100 {
		m.history = m.history[1:]
	}
	m.current = TurnMetrics{}
}

// Snapshot returns the totals, the in-progress turn and averages over
// recent turns that had a speech-end reference.
func (m *MetricsCollector) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.totals
	out.Current = m.current

	var n time.Duration
	for _, h := range m.history {
		if h.SpeechEndTime.IsZero() {
			continue
		}
		out.AvgFirstAudio += h.FirstAudio
		out.AvgTotalLatency += h.TotalLatency
		n++
	}
	if n > 0 {
		out.AvgFirstAudio /= n
		out.AvgTotalLatency /= n
	}
	return out
}

// History returns recent completed turns, oldest first.
func (m *MetricsCollector) History() []TurnMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TurnMetrics, len(m.history))
	copy(out, m.history)
	return out
}

// FormatLatency returns a one-line summary of the turn.
func (t TurnMetrics) FormatLatency() string {
	return formatDuration(t.FirstAudio) + " first audio | " +
		formatDuration(t.TotalLatency) + " total"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
