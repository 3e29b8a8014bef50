package security

import (
	"strings"

	"github.com/pquerna/otp/totp"
)

// totpIssuer is shown in authenticator apps.
const totpIssuer = "Prize Desk"

// NewTOTPSecret generates a TOTP secret and its provisioning URL for account.
func NewTOTPSecret(account string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP checks a six-digit code against secret.
func ValidateTOTP(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || strings.TrimSpace(secret) == "" {
		return false
	}
	return totp.Validate(code, secret)
}
