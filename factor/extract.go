package factor

import (
	"errors"
	"net/url"
	"strconv"
)

// ErrMissingCredentials is returned when the username or the primary secret
// is absent from the request. It asks for a re-prompt, not a failed login.
var ErrMissingCredentials = errors.New("missing credentials")

// ErrTooManyFactors is returned when a request carries more supplementary
// factors than [FieldNames.MaxSupplementary] allows.
var ErrTooManyFactors = errors.New("too many supplementary factors")

// Default field names, matching the classic container-managed login form.
const (
	DefaultUsernameKey = "j_username"
	DefaultPrimaryKey  = "j_password"
	DefaultTokenKey    = "j_tokens"
)

// Fields is the flat string-keyed view of a login request.
type Fields map[string]string

// FromValues flattens a parsed form to its first value per key.
func FromValues(values url.Values) Fields {
	out := make(Fields, len(values))
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	return out
}

// FieldNames selects which request keys carry the username, the primary
// secret and the supplementary factor prefix.
type FieldNames struct {
	Username string
	Primary  string
	Token    string

	// MaxSupplementary caps the scan. Zero means no cap. Exceeding the cap is
	// an error, never a truncation.
	MaxSupplementary int
}

// DefaultFieldNames returns the j_username / j_password / j_tokens layout.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		Username: DefaultUsernameKey,
		Primary:  DefaultPrimaryKey,
		Token:    DefaultTokenKey,
	}
}

// TokenKey renders the indexed key for supplementary factor i, e.g. j_tokens[0].
func (n FieldNames) TokenKey(i int) string {
	return n.Token + "[" + strconv.Itoa(i) + "]"
}

// Extract reads the username and builds the ordered secret list.
//
// Present-but-empty values count as present. The supplementary scan stops at
// the first missing index. A factor at index MaxSupplementary, when a cap is
// set, fails with [ErrTooManyFactors].
func Extract(fields Fields, names FieldNames) (string, *SecretList, error) {
	username, ok := fields[names.Username]
	if !ok {
		return "", nil, ErrMissingCredentials
	}
	primary, ok := fields[names.Primary]
	if !ok {
		return "", nil, ErrMissingCredentials
	}

	list := &SecretList{creds: make([]Credential, 0, 2)}
	list.append([]byte(primary))

	if names.Token == "" {
		return username, list, nil
	}

	for i := 0; ; i++ {
		v, ok := fields[names.TokenKey(i)]
		if !ok {
			break
		}
		if names.MaxSupplementary > 0 && i >= names.MaxSupplementary {
			list.Wipe()
			return username, nil, ErrTooManyFactors
		}
		list.append([]byte(v))
	}

	return username, list, nil
}
