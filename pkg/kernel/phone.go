package kernel

// NormalizePhone keeps the last 10 digits of s, dropping country codes and separators.
// ok is false when fewer than 10 digits are present.
func NormalizePhone(s string) (phone string, ok bool) {
	digits := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	if len(digits) < 10 {
		return string(digits), false
	}
	return string(digits[len(digits)-10:]), true
}
