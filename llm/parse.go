package llm

import (
	"errors"
	"strings"
)

// ErrNoPair is returned when a response contains no recognizable
// weather/advice labels.
var ErrNoPair = errors.New("response contains no weather/advice pair")

// weatherLabels and adviceLabels are the prompt's output markers plus
// the variants models actually emit.
var (
	weatherLabels = []string{"weather_comment", "weather"}
	adviceLabels  = []string{"advice_comment", "advice"}
)

// ParsePair extracts the weather and advice lines from raw model
// output. Models decorate their answers unpredictably, so matching is
// lenient: labels are case-insensitive, half- and full-width colons
// both count, markdown emphasis and surrounding quotes are stripped,
// and when a label repeats the LAST occurrence wins (models often
// restate their final answer after reasoning text).
func ParsePair(raw string) (weather, advice string, err error) {
	for _, line := range strings.Split(raw, "\n") {
		line = cleanLine(line)
		if v, ok := labeledValue(line, weatherLabels); ok && v != "" {
			weather = v
			continue
		}
		if v, ok := labeledValue(line, adviceLabels); ok && v != "" {
			advice = v
		}
	}
	if weather == "" || advice == "" {
		return "", "", ErrNoPair
	}
	return weather, advice, nil
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")
	line = strings.ReplaceAll(line, "**", "")
	return line
}

// labeledValue matches `<label>: value` with either colon form.
// Weather labels are tried before advice labels by the caller, and
// "weather_comment" before "weather", so the longest label wins.
func labeledValue(line string, labels []string) (string, bool) {
	lower := strings.ToLower(line)
	for _, label := range labels {
		for _, sep := range []string{":", "："} {
			prefix := label + sep
			if strings.HasPrefix(lower, prefix) {
				return trimValue(line[len(prefix):]), true
			}
		}
	}
	return "", false
}

func trimValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"'`)
	v = strings.Trim(v, "「」")
	return strings.TrimSpace(v)
}
