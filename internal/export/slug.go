package export

import "strings"

const maxSlugLength = 50

// Slug derives a filesystem- and URL-safe name from an article title.
// The result contains only lowercase letters, digits, and single hyphens,
// never starts or ends with a hyphen, and is at most 50 characters.
func Slug(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
