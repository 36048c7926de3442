package models

import "strings"

// SpeakerRole identifies the producer of a message.
type SpeakerRole string

const (
	SpeakerUser      SpeakerRole = "user"      // the clinical-staff caller
	SpeakerAssistant SpeakerRole = "assistant" // the generated reply
)

// Part is a single typed piece of a message. The pipeline only interprets
// text parts; inline and file data pass through to the transcript untouched.
type Part struct {
	Text       string    `json:"text,omitempty" bson:"text,omitempty"`
	InlineData *Blob     `json:"inlineData,omitempty" bson:"inline_data,omitempty"`
	FileData   *FileData `json:"fileData,omitempty" bson:"file_data,omitempty"`
}

// Blob carries inline binary data.
type Blob struct {
	DisplayName string `json:"displayName,omitempty" bson:"display_name,omitempty"`
	Data        []byte `json:"data,omitempty" bson:"data,omitempty"`
	MIMEType    string `json:"mimeType,omitempty" bson:"mime_type,omitempty"`
}

// FileData carries URI-based data.
type FileData struct {
	DisplayName string `json:"displayName,omitempty" bson:"display_name,omitempty"`
	FileURI     string `json:"fileUri,omitempty" bson:"file_uri,omitempty"`
	MIMEType    string `json:"mimeType,omitempty" bson:"mime_type,omitempty"`
}

// Message is one entry of a conversation. Messages are immutable once
// appended; slice order is conversation order.
type Message struct {
	Role  SpeakerRole `json:"role" bson:"role"`
	Parts []*Part     `json:"parts" bson:"parts"`
}

// Text returns the concatenated text parts of the message. It is empty for
// messages that carry no text part.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range m.Parts {
		if p != nil && p.Text != "" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role SpeakerRole, text string) *Message {
	return &Message{Role: role, Parts: []*Part{{Text: text}}}
}

// ChatRequest is the inbound payload of one turn.
type ChatRequest struct {
	Messages  []*Message `json:"messages"`
	ChatID    string     `json:"chatId"`
	Role      string     `json:"role"`
	PatientID string     `json:"patientId"`
}

// GenerateContentRequest is the request handed to the generation collaborator.
type GenerateContentRequest struct {
	// SystemInstruction is the assembled system-level instruction for the turn.
	SystemInstruction string
	// Contents is the bounded recent-turn window, oldest first.
	Contents []*Message
}

// GenerateContentResponse is a complete, non-streamed generation result.
type GenerateContentResponse struct {
	Text  string
	Usage *TurnUsage
}

// StreamChunk is one element of a generation stream. Exactly one terminal
// chunk is delivered before the channel closes: either Err is set (the
// stream failed) or the chunk carries the final usage summary.
type StreamChunk struct {
	Text  string
	Usage *TurnUsage
	Err   error
}
