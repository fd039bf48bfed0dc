package threshold

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// cleanPattern converts a selector into a slash-separated glob without a
// leading "./", the form coverage paths are stored in.
func cleanPattern(pattern string) string {
	pattern = filepath.ToSlash(pattern)
	for strings.HasPrefix(pattern, "./") {
		pattern = pattern[2:]
	}
	return pattern
}

// splitNegation strips leading "!" markers and reports whether the pattern
// is negated (an odd number of them). "!(" starts an extglob, not a negation.
func splitNegation(pattern string) (string, bool) {
	negated := false
	for strings.HasPrefix(pattern, "!") && !strings.HasPrefix(pattern, "!(") {
		pattern = pattern[1:]
		negated = !negated
	}
	return pattern, negated
}

// Match reports whether name matches the glob pattern. A leading "!" negates
// the pattern. Wildcards never match a path segment starting with ".";
// such segments only match a pattern segment that starts with "." itself.
// Malformed patterns match nothing, negated or not.
func Match(pattern, name string) bool {
	pattern, negated := splitNegation(filepath.ToSlash(pattern))
	pattern = cleanPattern(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return false
	}
	return matchGlob(pattern, name) != negated
}

func matchGlob(pattern, name string) bool {
	segments, ok := splitSegments(pattern)
	if !ok {
		// A brace alternative spans segments, leave it to doublestar whole.
		matched, err := doublestar.Match(pattern, name)
		return err == nil && matched
	}
	return matchSegments(segments, strings.Split(name, "/"))
}

// matchSegments matches path segments one by one so "*" and "**" can skip
// dot segments.
func matchSegments(patterns, names []string) bool {
	if len(patterns) == 0 {
		return len(names) == 0
	}
	if patterns[0] == "**" {
		if matchSegments(patterns[1:], names) {
			return true
		}
		return len(names) > 0 && !isDotSegment(names[0]) && matchSegments(patterns, names[1:])
	}
	if len(names) == 0 {
		return false
	}
	if patterns[0] == "" && names[0] == "" {
		// Root of an absolute path.
		return matchSegments(patterns[1:], names[1:])
	}
	if isDotSegment(names[0]) && !strings.HasPrefix(patterns[0], ".") {
		return false
	}
	matched, err := doublestar.Match(patterns[0], names[0])
	if err != nil || !matched {
		return false
	}
	return matchSegments(patterns[1:], names[1:])
}

func isDotSegment(segment string) bool {
	return strings.HasPrefix(segment, ".")
}

// splitSegments splits pattern on "/" outside brace groups and escapes. It
// reports false when a brace group itself contains "/".
func splitSegments(pattern string) ([]string, bool) {
	var (
		segments []string
		depth    int
		start    int
	)
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth > 0 {
				return nil, false
			}
			segments = append(segments, pattern[start:i])
			start = i + 1
		}
	}
	return append(segments, pattern[start:]), true
}

// MatchList returns the paths matching pattern, in input order.
func MatchList(paths []string, pattern string) []string {
	var matched []string
	for _, p := range paths {
		if Match(pattern, p) {
			matched = append(matched, p)
		}
	}
	return matched
}

// MatchAny returns the paths matching at least one pattern, in input order.
func MatchAny(paths []string, patterns []string) []string {
	var matched []string
	for _, p := range paths {
		for _, pattern := range patterns {
			if Match(pattern, p) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

// MatchSubtree reports whether name matches "pattern/**": the pattern
// itself, or anything nested below a path the pattern matches. A negated
// pattern selects everything outside that subtree.
func MatchSubtree(pattern, name string) bool {
	pattern, negated := splitNegation(filepath.ToSlash(pattern))
	pattern = strings.TrimSuffix(cleanPattern(pattern), "/")
	if !doublestar.ValidatePattern(pattern) {
		return false
	}
	return (matchGlob(pattern, name) || matchGlob(pattern+"/**", name)) != negated
}

// NotSubtree returns the paths that fall under none of the patterns'
// subtrees, in input order.
func NotSubtree(paths []string, patterns []string) []string {
	var rest []string
	for _, p := range paths {
		covered := false
		for _, pattern := range patterns {
			if MatchSubtree(pattern, p) {
				covered = true
				break
			}
		}
		if !covered {
			rest = append(rest, p)
		}
	}
	return rest
}

// ValidatePattern reports whether pattern is a well-formed glob.
func ValidatePattern(pattern string) bool {
	pattern, _ = splitNegation(filepath.ToSlash(pattern))
	return doublestar.ValidatePattern(cleanPattern(pattern))
}
