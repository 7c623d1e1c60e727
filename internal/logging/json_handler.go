package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// frameTimeLayout keeps milliseconds so lines from frames submitted a few
// hundred milliseconds apart stay ordered.
const frameTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// maxCandidateRunes bounds candidate text, which can span several list lines.
const maxCandidateRunes = 120

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(frameTimeLayout))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			case FieldCandidate:
				attr.Value = slog.StringValue(truncateCandidate(attr.Value.String()))
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}

func truncateCandidate(text string) string {
	if utf8.RuneCountInString(text) <= maxCandidateRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxCandidateRunes]) + "…"
}
