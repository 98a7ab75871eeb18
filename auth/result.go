package auth

// Result is the uniform outcome envelope returned by every Engine operation.
//
// Success implies Error and Errors are empty. When Errors is set, Error holds
// one representative message for callers that only check a single string.
type Result struct {
	Success bool              `json:"success"`
	User    *User             `json:"user,omitempty"`
	Token   string            `json:"token,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(user *User, token string) *Result {
	return &Result{Success: true, User: user, Token: token}
}

// Failed builds a failed result carrying a single message.
func Failed(message string) *Result {
	return &Result{Error: message}
}

// FailedWith builds a failed result carrying a representative message and
// the full field→message map.
func FailedWith(message string, fields map[string]string) *Result {
	if len(fields) == 0 {
		return Failed(message)
	}
	return &Result{Error: message, Errors: fields}
}

// Messages returned by the Engine and the default strategy.
const (
	MsgValidationFailed   = "Validation failed"
	MsgUserExists         = "User already exists"
	MsgEmailRegistered    = "This email is already registered"
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidEmailOrPass = "Invalid email or password"
	MsgRegistrationFailed = "Registration failed: "
	MsgLoginFailed        = "Login failed: "
	MsgInvalidToken       = "Invalid token"
	MsgTokenExpired       = "Token expired"
	MsgTokenVerifyFailed  = "Token verification failed"
)

func duplicateEmail() *Result {
	return FailedWith(MsgUserExists, map[string]string{FieldEmail: MsgEmailRegistered})
}

func invalidCredentials() *Result {
	return FailedWith(MsgInvalidCredentials, map[string]string{"general": MsgInvalidEmailOrPass})
}
