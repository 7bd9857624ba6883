package configuration

// Profile selects which of the three services a process hosts. The default
// "all" runs everything in one process; production runs one profile each.
type Profile struct {
	Authenticator bool
	RiskScorer    bool
	MFAArbiter    bool
}

func GetProfile(name string) Profile {
	switch name {
	case "auth":
		return Profile{Authenticator: true}
	case "risk":
		return Profile{RiskScorer: true}
	case "mfa":
		return Profile{MFAArbiter: true}
	default:
		return Profile{Authenticator: true, RiskScorer: true, MFAArbiter: true}
	}
}
