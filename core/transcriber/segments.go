package transcriber

import (
	"encoding/json"
	"strings"

	"transcription-orchestrator/core/models"
)

// jsonTranscript mirrors the whisper.cpp -oj output layout
type jsonTranscript struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseSegments extracts time-aligned segments from the structured sibling
// artifact. Offsets are milliseconds from the start of the audio.
func parseSegments(data []byte) ([]models.TranscriptSegment, error) {
	var doc jsonTranscript
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	segments := make([]models.TranscriptSegment, 0, len(doc.Transcription))
	for _, entry := range doc.Transcription {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			StartMS: entry.Offsets.From,
			EndMS:   entry.Offsets.To,
			Text:    text,
		})
	}
	return segments, nil
}
