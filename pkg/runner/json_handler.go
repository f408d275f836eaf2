package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// JSONHandler implements IOHandler over JSON lines. Each input line is a
// JSON string, an object with a "message" field, or plain text. Each outcome
// is written as one JSON object.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// SystemEvent is the JSON line written for meta-messages.
type SystemEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Input(_ context.Context) (string, error) {
	for {
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return "", err
			}
			continue
		}
		return SanitizeInput(decodeMessage(text))
	}
}

func decodeMessage(line string) string {
	var s string
	if err := json.Unmarshal([]byte(line), &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(line), &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return line
}

func (h *JSONHandler) Output(_ context.Context, out *domain.Outcome) error {
	return h.Encoder.Encode(out)
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.Encoder.Encode(SystemEvent{Type: "system", Message: msg})
}
