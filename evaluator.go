package gate

// Credential is whatever a requester supplied alongside a verify call.
// Both fields are optional; the rule's mode decides which one matters.
type Credential struct {
	Password string `json:"password,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Decision is the outcome of evaluating one credential against one rule
type Decision struct {
	Granted bool
	// Kind labels which credential the decision consumed, for auditing
	Kind CredentialKind
	// Reason carries the structured denial; nil when granted
	Reason error
}

// Evaluate decides grant or deny for a rule and credential. It is pure:
// no I/O, no clock, no side effects. A nil rule means the content has no
// policy and is open by default.
func Evaluate(rule *AccessRule, cred Credential) Decision {
	switch rule.EffectiveMode() {
	case ModePassword:
		if cred.Password == "" {
			return Decision{Kind: CredentialPassword, Reason: ErrMissingCredential}
		}
		if err := ComparePasswordAndHash(cred.Password, rule.PasswordHash); err != nil {
			return Decision{Kind: CredentialPassword, Reason: ErrInvalidPassword}
		}
		return Decision{Granted: true, Kind: CredentialPassword}

	case ModeEmailList:
		if cred.Email == "" {
			return Decision{Kind: CredentialEmail, Reason: ErrMissingCredential}
		}
		if !rule.AllowsEmail(cred.Email) {
			return Decision{Kind: CredentialEmail, Reason: ErrEmailNotAllowed}
		}
		return Decision{Granted: true, Kind: CredentialEmail}

	default:
		return Decision{Granted: true, Kind: CredentialNone}
	}
}
