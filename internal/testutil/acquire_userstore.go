package testutil

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/andrebq/turnstile/account"
	"github.com/andrebq/turnstile/userstore"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}

	// Account is a user to register in a fresh store, PasswordHash is used as is.
	Account struct {
		Email        string
		PasswordHash string
	}
)

// AcquireUserStore opens a migrated sqlite user store in a temporary
// directory and registers every given account.
func AcquireUserStore(ctx context.Context, t TestLog, accounts ...Account) (*userstore.Store, []*account.User, func()) {
	dir, err := ioutil.TempDir("", "turnstile-tests")
	if err != nil {
		t.Fatal(err)
	}
	dsn := fmt.Sprintf("file:%v?_journal=wal&mode=rwc", filepath.Join(dir, "users.db"))
	store, err := userstore.Open(ctx, "sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}
	var users []*account.User
	for _, a := range accounts {
		u, err := store.Register(ctx, a.Email, a.PasswordHash)
		if err != nil {
			t.Fatal(err)
		}
		users = append(users, u)
	}
	return store, users, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close user store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
