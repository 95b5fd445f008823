package domain

// Phase - шаг формы входа
type Phase string

const (
	// PhasePhone - ввод номера телефона (начальный шаг)
	PhasePhone Phase = "phone"
	// PhaseOTP - ввод кода из SMS
	PhaseOTP Phase = "otp"
)

const (
	PhoneLength           = 10
	OTPLength             = 6
	DefaultResendCooldown = 30
)

// LoginState - снимок состояния формы входа
type LoginState struct {
	Phase     Phase  `json:"phase"`
	Phone     string `json:"phone"`
	OTPLength int    `json:"otp_length"`
	Cooldown  int    `json:"resend_cooldown"`
	Busy      bool   `json:"busy"`
	Verified  bool   `json:"verified"`

	CanSubmitPhone  bool `json:"can_submit_phone"`
	CanSubmitOTP    bool `json:"can_submit_otp"`
	CanResend       bool `json:"can_resend"`
	CanChangeNumber bool `json:"can_change_number"`
}

// LoginPhoneRequest - запрос на отправку OTP
type LoginPhoneRequest struct {
	Phone string `json:"phone" form:"phone"`
}

// LoginOTPRequest - запрос на проверку OTP
type LoginOTPRequest struct {
	Code string `json:"code" form:"code"`
}

// LoginInputRequest - обновление полей ввода без отправки формы.
// Пустой указатель означает, что поле не меняется.
type LoginInputRequest struct {
	Phone *string `json:"phone,omitempty"`
	Code  *string `json:"code,omitempty"`
}

// LoginStateResponse - ответ API формы входа
type LoginStateResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	State   LoginState `json:"state"`
}
