package passport

import (
	"errors"
	"fmt"
)

type (
	UnknownStrategy struct {
		Name string
	}
)

var (
	ErrNoSerializer   = errors.New("passport: no serializer registered, call SerializeUser")
	ErrNoDeserializer = errors.New("passport: no deserializer registered, call DeserializeUser")
	errNoOutcome      = errors.New("passport: strategy returned a result without outcome")
)

func (u UnknownStrategy) Error() string {
	return fmt.Sprintf("passport: unknown authentication strategy %q", u.Name)
}
