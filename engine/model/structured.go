package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models occasionally emit Python-style boolean literals inside otherwise
// valid JSON. Normalized before parsing.
var (
	pyTrue  = regexp.MustCompile(`\bTrue\b`)
	pyFalse = regexp.MustCompile(`\bFalse\b`)
)

// DecodeError reports a model reply that could not be parsed into the
// requested shape. Raw and Normalized are kept for diagnostics; callers are
// expected to fall back to a deterministic default rather than propagate.
type DecodeError struct {
	Raw        string
	Normalized string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid model output: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeStructured parses a model's JSON reply into out. Markdown code-fence
// markers are stripped and Python True/False literals are lowered before
// unmarshalling. On failure it returns a *DecodeError carrying the raw and
// normalized text; it never panics.
func DecodeStructured(raw string, out any) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	normalized := pyTrue.ReplaceAllString(cleaned, "true")
	normalized = pyFalse.ReplaceAllString(normalized, "false")

	if err := json.Unmarshal([]byte(normalized), out); err != nil {
		return &DecodeError{Raw: raw, Normalized: normalized, Err: err}
	}
	return nil
}
