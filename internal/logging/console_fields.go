package logging

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are printed first, in this order, on info lines.
var infoHighlightKeys = []string{
	FieldEventType,
	FieldQuality,
	"outcome",
	"job_status",
	"reason",
	"error",
	FieldErrorHint,
	FieldImpact,
}

// debugOnlyKeys are hidden from info lines. The subject line already shows
// run, event and round.
var debugOnlyKeys = map[string]bool{
	FieldRunID:  true,
	FieldEvent:  true,
	FieldRound:  true,
	"reference": true,
	"cursor":    true,
	"job_id":    true,
	"url":       true,
}

// selectFields orders highlight keys first. Info lines drop debug-only
// keys and overlong values; debug lines keep everything.
func selectFields(attrs []kv, debug bool) []infoField {
	if len(attrs) == 0 {
		return nil
	}
	used := make([]bool, len(attrs))
	out := make([]infoField, 0, len(attrs))
	add := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if !debug && debugOnlyKeys[attr.key] {
			return
		}
		value := formatValueForKey(attr.key, attr.value)
		if !debug && attr.key != "error" && len(value) > 120 {
			return
		}
		out = append(out, infoField{label: displayLabel(attr.key), value: value})
	}
	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			add(idx)
		}
	}
	return out
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case (strings.HasSuffix(key, "_bytes") || key == "size") && v.Kind() == slog.KindInt64:
		return formatBytes(v.Int64())
	case v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if key == "error" {
		value = truncateRunes(value, maxErrorRunes)
	}
	return value
}

const maxErrorRunes = 200

// truncateRunes cuts value to at most limit runes, marking the cut.
func truncateRunes(value string, limit int) string {
	count := 0
	for i := range value {
		if count == limit {
			return value[:i] + "…"
		}
		count++
	}
	return value
}

func formatBytes(n int64) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.IBytes(uint64(n))
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldPostID:
		return "Post"
	case FieldEvent:
		return "Event Name"
	case "job_status":
		return "Status"
	}
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}
