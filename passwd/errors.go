package passwd

import "fmt"

type (
	UnknownScheme struct {
		Prefix string
	}

	MalformedHash struct {
		Scheme string
		cause  error
	}
)

func (u UnknownScheme) Error() string {
	if u.Prefix == "" {
		return "passwd: hash does not name a known scheme"
	}
	return fmt.Sprintf("passwd: unknown hash scheme %q", u.Prefix)
}

func (m MalformedHash) Error() string {
	if m.cause == nil {
		return fmt.Sprintf("passwd: malformed %v hash", m.Scheme)
	}
	return fmt.Sprintf("passwd: malformed %v hash, cause %v", m.Scheme, m.cause)
}

func (m MalformedHash) Unwrap() error {
	return m.cause
}

func (m MalformedHash) Is(target error) bool {
	other, ok := target.(MalformedHash)
	return ok && other.Scheme == m.Scheme
}
