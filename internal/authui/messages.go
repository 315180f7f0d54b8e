package authui

// Messages holds every user-facing string of the modal so it can be localized.
type Messages struct {
	TitleLogin           string
	TitleRegister        string
	TitleRecover         string
	TitleRecoverySuccess string

	InvalidCredentials  string
	LoginFailed         string
	WeakPassword        string
	RegistrationFailed  string
	RegistrationRetry   string
	InvalidRecovery     string
	RecoveryFailed      string
	RecoveryCompleted   string
	RecoveryCodeWarning string
	CopyFailed          string
	MissingFields       string
}

// English is the default message catalogue.
func English() Messages {
	return Messages{
		TitleLogin:           "Welcome Back",
		TitleRegister:        "Create Account",
		TitleRecover:         "Recover Password",
		TitleRecoverySuccess: "Account Created!",

		InvalidCredentials:  "Invalid email or password",
		LoginFailed:         "Login failed. Please try again.",
		WeakPassword:        "Password must be at least 8 characters with uppercase, lowercase, and numbers",
		RegistrationFailed:  "Registration failed",
		RegistrationRetry:   "Registration failed. Please try again.",
		InvalidRecovery:     "Invalid email or recovery code",
		RecoveryFailed:      "Recovery failed. Please try again.",
		RecoveryCompleted:   "Password updated. You can now sign in.",
		RecoveryCodeWarning: "Save this recovery code somewhere safe. It will not be shown again.",
		CopyFailed:          "Could not copy the recovery code",
		MissingFields:       "Please fill in all required fields",
	}
}

// Country is an entry of the destination/residence selector.
type Country struct {
	Code string
	Name string
}

// DefaultCountry preselects both country fields.
const DefaultCountry = "US"

// Countries is the selector list shown on the registration form.
var Countries = []Country{
	{Code: "US", Name: "United States"},
	{Code: "UK", Name: "United Kingdom"},
	{Code: "CA", Name: "Canada"},
	{Code: "AU", Name: "Australia"},
	{Code: "DE", Name: "Germany"},
	{Code: "FR", Name: "France"},
	{Code: "JP", Name: "Japan"},
	{Code: "KR", Name: "South Korea"},
	{Code: "CN", Name: "China"},
	{Code: "IN", Name: "India"},
	{Code: "BR", Name: "Brazil"},
	{Code: "MX", Name: "Mexico"},
	{Code: "SG", Name: "Singapore"},
	{Code: "HK", Name: "Hong Kong"},
	{Code: "NL", Name: "Netherlands"},
}

// ValidCountry reports whether code is in Countries.
func ValidCountry(code string) bool {
	for _, c := range Countries {
		if c.Code == code {
			return true
		}
	}
	return false
}
