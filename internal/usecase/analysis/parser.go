package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
)

var shapeValidator = validator.New()

// decodeModelJSON extracts the JSON object from a model reply, decodes it
// into out and checks its validate tags. Every failure wraps
// ErrAIResponseInvalid; nothing is defaulted.
func decodeModelJSON(raw string, out interface{}) error {
	body, ok := extractJSON(raw)
	if !ok {
		return fmt.Errorf("%w: no JSON object in response %q", usecaseErrors.ErrAIResponseInvalid, truncate(raw, 200))
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("%w: %v", usecaseErrors.ErrAIResponseInvalid, err)
	}
	if err := shapeValidator.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", usecaseErrors.ErrAIResponseInvalid, err)
	}
	return nil
}

// extractJSON returns the first balanced {...} block of content, after
// stripping markdown code fences. Braces inside strings are ignored.
func extractJSON(content string) (string, bool) {
	content = strings.TrimSpace(content)

	// Models often wrap the body in a markdown code block
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.IndexByte(content, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
