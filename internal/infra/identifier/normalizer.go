// Package identifier canonicalizes login identifiers.
package identifier

import (
	"net/mail"
	"strings"

	"triptrack/config"
	domainerrors "triptrack/internal/domain/errors"
	"triptrack/internal/domain/service"
	"triptrack/internal/errors"

	"github.com/nyaruka/phonenumbers"
)

type normalizer struct {
	defaultRegion string
}

// NewNormalizer uses auth.defaultRegion for numbers written without a country code.
func NewNormalizer(cfg *config.Config) service.IdentifierNormalizer {
	region := "US"
	if cfg != nil && cfg.Auth != nil && cfg.Auth.DefaultRegion != "" {
		region = strings.ToUpper(cfg.Auth.DefaultRegion)
	}

	return &normalizer{defaultRegion: region}
}

func (n *normalizer) NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domainerrors.ErrValidationFailed.WithDetails("invalid email")
	}

	return email, nil
}

func (n *normalizer) NormalizePhone(phone string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(phone), n.defaultRegion)
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrValidationFailed.WithDetails("invalid phone number"), err.Error())
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", domainerrors.ErrValidationFailed.WithDetails("invalid phone number")
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Normalize treats anything containing '@' as an email and everything else as a phone number.
func (n *normalizer) Normalize(identifier string) (string, service.IdentifierKind, error) {
	if strings.Contains(identifier, "@") {
		email, err := n.NormalizeEmail(identifier)

		return email, service.IdentifierEmail, err
	}

	phone, err := n.NormalizePhone(identifier)

	return phone, service.IdentifierPhone, err
}
