package service

// IdentifierKind tells whether a login identifier is an email or a phone number.
type IdentifierKind int

const (
	IdentifierEmail IdentifierKind = iota + 1
	IdentifierPhone
)

// IdentifierNormalizer canonicalizes login identifiers so that lookups match how they were stored.
type IdentifierNormalizer interface {
	// NormalizeEmail trims and lower-cases an email. It fails on malformed input.
	NormalizeEmail(email string) (string, error)

	// NormalizePhone parses a phone number and formats it as E.164. It fails on invalid numbers.
	NormalizePhone(phone string) (string, error)

	// Normalize detects the kind of identifier and normalizes it accordingly.
	Normalize(identifier string) (string, IdentifierKind, error)
}
