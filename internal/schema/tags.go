package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ScaleTag is the name tag that scales exported images, as in "arm[scale:0.5]".
const ScaleTag = "scale"

var tagPattern = regexp.MustCompile(`\[\s*[\w-]+\s*:\s*[\w.\s]+\s*\]`)

// ParseTags extracts the [name:value] tags embedded in a bone or slot name.
// Only numeric tags listed in the supported set are accepted.
func ParseTags(name string) (map[string]float64, error) {
	tags := make(map[string]float64)
	for _, raw := range tagPattern.FindAllString(name, -1) {
		body := raw[1 : len(raw)-1]
		key, value, _ := strings.Cut(body, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if _, dup := tags[key]; dup {
			return nil, fmt.Errorf("%w: tag [%s] repeated in %q", ErrInvalidTag, key, name)
		}
		if key != ScaleTag {
			return nil, fmt.Errorf("%w: unsupported tag [%s] in %q", ErrInvalidTag, key, name)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: tag [%s] in %q: %v", ErrInvalidTag, key, name, err)
		}
		tags[key] = f
	}
	return tags, nil
}

// ScaleOf returns the [scale:x] tag of name, or 1.
func ScaleOf(name string) (float64, error) {
	tags, err := ParseTags(name)
	if err != nil {
		return 0, err
	}
	if s, ok := tags[ScaleTag]; ok {
		return s, nil
	}
	return 1, nil
}
