package userstore

import "fmt"

type (
	DuplicateEmail struct {
		Email string
	}

	UnknownDriver struct {
		Driver string
	}
)

func (d DuplicateEmail) Error() string {
	return fmt.Sprintf("a user with email %v already exists", d.Email)
}

func (u UnknownDriver) Error() string {
	return fmt.Sprintf("database driver %q is not supported, use sqlite3 or pgx", u.Driver)
}
