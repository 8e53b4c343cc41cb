package models

// TokenPair is the access/refresh token pair issued on login, register
// and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	TokenPair
	User *User `json:"user"`
}
