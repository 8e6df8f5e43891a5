package agents

import (
	"strings"

	"github.com/google/uuid"
)

// canonicalName derives a stable, URL-safe identifier from a display name,
// with a short random suffix to keep retries from colliding.
func canonicalName(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "agent"
	}

	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return slug + "_" + suffix
}
