// Package parser converts raw input into prompt messages for estimation.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	domainerrors "github.com/jbctechsolutions/tokenmeter/internal/domain/errors"
	"github.com/jbctechsolutions/tokenmeter/internal/domain/prompt"
)

// Format selects the input parser.
type Format string

const (
	// FormatAuto detects JSON chat payloads and falls back to plain text.
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatAuto, FormatText, FormatJSON:
		return Format(s), nil
	case "":
		return FormatAuto, nil
	default:
		return "", domainerrors.Parse(fmt.Sprintf("unknown input format %q", s))
	}
}

// jsonMessage mirrors the chat-completions message shape. Content is either
// a plain string or an array of typed parts, of which only text parts count.
type jsonMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type jsonContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// jsonRequest is the wrapped request form: {"messages": [...]}.
type jsonRequest struct {
	Messages []jsonMessage `json:"messages"`
}

// Parse converts input into messages according to the format.
//
// Plain text becomes a single user message. JSON input accepts either a bare
// message array or a request object with a "messages" field. With FormatAuto,
// input whose first non-space byte is '[' or '{' must be valid JSON chat
// payload: silently treating malformed JSON as prose would miscount it.
func Parse(input string, format Format) ([]prompt.Message, error) {
	switch format {
	case FormatText:
		return parseText(input), nil
	case FormatJSON:
		return parseJSON(input)
	case FormatAuto, "":
		trimmed := strings.TrimSpace(input)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			return parseJSON(input)
		}
		return parseText(input), nil
	default:
		return nil, domainerrors.Parse(fmt.Sprintf("unknown input format %q", format))
	}
}

func parseText(input string) []prompt.Message {
	return prompt.Text(input)
}

func parseJSON(input string) ([]prompt.Message, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, domainerrors.Parse("empty JSON input")
	}

	var raw []jsonMessage
	if strings.HasPrefix(trimmed, "{") {
		var req jsonRequest
		if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
			return nil, domainerrors.Parse(fmt.Sprintf("invalid JSON request: %v", err))
		}
		if req.Messages == nil {
			return nil, domainerrors.Parse(`JSON object has no "messages" field`)
		}
		raw = req.Messages
	} else {
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, domainerrors.Parse(fmt.Sprintf("invalid JSON message array: %v", err))
		}
	}

	messages := make([]prompt.Message, 0, len(raw))
	for i, m := range raw {
		if m.Role == "" {
			return nil, domainerrors.Parse(fmt.Sprintf("message %d: missing role", i))
		}
		content, err := decodeContent(m.Content)
		if err != nil {
			return nil, domainerrors.Parse(fmt.Sprintf("message %d: %v", i, err))
		}
		messages = append(messages, prompt.Message{
			Role:    m.Role,
			Content: content,
		})
	}

	return messages, nil
}

// decodeContent accepts a string or an array of {type, text} parts.
func decodeContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing content")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var parts []jsonContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("content is neither a string nor a part array")
	}

	var b strings.Builder
	for _, p := range parts {
		if p.Type == "" || p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String(), nil
}
