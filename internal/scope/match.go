package scope

// Match reports whether name matches the shell-glob-style pattern.
// '*' matches any run of characters (including none) and '?' matches
// exactly one character. Character classes are not supported.
//
// The standard library's path.Match is deliberately not used here: its '*'
// never crosses '/', and scope identifiers contain '/' inside the
// owner/repo segment, so "laptop:*:session:*" must match across it.
func Match(pattern, name string) bool {
	// Iterative matcher with single-star backtracking. On mismatch after a
	// '*', re-expand the star by one character and retry.
	var (
		p, n         int
		starP, starN = -1, 0
	)
	for n < len(name) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == name[n]):
			p++
			n++
		case p < len(pattern) && pattern[p] == '*':
			starP, starN = p, n
			p++
		case starP >= 0:
			starN++
			p, n = starP+1, starN
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
