package authui

const minPasswordLength = 8

// StrongPassword reports whether password has at least 8 characters with an
// ASCII uppercase letter, an ASCII lowercase letter and an ASCII digit.
func StrongPassword(password string) bool {
	var count int
	var upper, lower, digit bool
	for _, r := range password {
		count++
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return count >= minPasswordLength && upper && lower && digit
}
