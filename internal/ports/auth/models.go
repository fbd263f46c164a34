package auth

// Claims representa la identidad extraída del ID token.
type Claims struct {
	UID      string // uid del proveedor de identidad
	Email    string
	Name     string
	Picture  string
	Provider string // google.com, apple.com, oidc.kakao, password, ...
}
