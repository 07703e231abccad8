package chatrelay

// Credential is a bearer token and the email it was issued to. The zero value
// means unauthenticated.
type Credential struct {
	Token string
	Email string
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool { return c.Token != "" }
