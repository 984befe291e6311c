// Package account holds the user record shared by the datastore,
// the authentication framework and the local credential strategy.
package account

import "time"

type (
	// User is owned by the datastore, everything else only reads it.
	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// View is the subset of a User that is safe to send to clients.
	View struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	}
)

func (u *User) View() View {
	return View{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
