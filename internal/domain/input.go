package domain

// SanitizePhone оставляет в строке только цифры и обрезает до PhoneLength
func SanitizePhone(raw string) string {
	return digitsOnly(raw, PhoneLength)
}

// SanitizeOTP оставляет в строке только цифры и обрезает до OTPLength
func SanitizeOTP(raw string) string {
	return digitsOnly(raw, OTPLength)
}

// MaskPhone скрывает номер в логах: 9876543210 -> ******3210
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := make([]byte, len(phone))
	for i := range masked {
		if i < len(phone)-4 {
			masked[i] = '*'
		} else {
			masked[i] = phone[i]
		}
	}
	return string(masked)
}

func digitsOnly(raw string, limit int) string {
	out := make([]byte, 0, limit)
	for i := 0; i < len(raw) && len(out) < limit; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}
