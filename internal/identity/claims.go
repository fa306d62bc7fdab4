package identity

// Claim is a type/value pair used for authorization decisions.
type Claim struct {
	Type  string
	Value string
}

// Matches reports whether the claim has exactly the given type and value.
func (c Claim) Matches(claimType, claimValue string) bool {
	return c.Type == claimType && c.Value == claimValue
}

// LoginInfo describes an external login supplied by the framework.
type LoginInfo struct {
	LoginProvider       string
	ProviderKey         string
	ProviderDisplayName string
}
