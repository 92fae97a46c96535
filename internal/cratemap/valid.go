package cratemap

// MaxNameLength is crates.io's limit on crate name length.
const MaxNameLength = 64

// ValidCrateName mirrors crates.io's registration rules: leading alphabetic
// character, ASCII alphanumerics plus `_` and `-`, at most MaxNameLength
// characters.
func ValidCrateName(name string) bool {
	if name == "" || len(name) > MaxNameLength {
		return false
	}
	first := name[0]
	if !(first >= 'A' && first <= 'Z' || first >= 'a' && first <= 'z') {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'A' && ch <= 'Z':
		case ch >= 'a' && ch <= 'z':
		case ch == '_' || ch == '-':
		default:
			return false
		}
	}
	return true
}

// ValidLogin mirrors GitHub's username rules the way crates.io applies
// them: ASCII alphanumerics and `-`, no leading, trailing, or doubled `-`,
// at most 39 characters. Team logins are `org/team`; validate each half.
func ValidLogin(login string) bool {
	if login == "" || len(login) > 39 {
		return false
	}
	if login[0] == '-' || login[len(login)-1] == '-' {
		return false
	}
	prev := byte(0)
	for i := 0; i < len(login); i++ {
		ch := login[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'A' && ch <= 'Z':
		case ch >= 'a' && ch <= 'z':
		case ch == '-':
			if prev == '-' {
				return false
			}
		default:
			return false
		}
		prev = ch
	}
	return true
}

// IsTeam reports whether a query login names a team rather than a user.
func IsTeam(login string) bool {
	for i := 0; i < len(login); i++ {
		if login[i] == '/' {
			return true
		}
	}
	return false
}
