// Package directory holds the in-memory account and group registries.
// Both are constructor-injected into the server rather than living as
// process-wide state, so several server instances can coexist in one
// process and tests can run against isolated registries.
package directory

import (
	"errors"
	"log"
	"sync"

	"chatrelay/models"
)

var ErrUserExists = errors.New("user already exists")

// AccountSaver persists the full account set. Save failures are logged
// and otherwise ignored: the in-memory registry stays authoritative
// for the rest of the process lifetime.
type AccountSaver interface {
	SaveAccounts([]models.Account) error
}

// Users is the registry of known accounts.
type Users struct {
	mu       sync.Mutex
	accounts []models.Account
	saver    AccountSaver
}

func NewUsers(accounts []models.Account, saver AccountSaver) *Users {
	return &Users{accounts: accounts, saver: saver}
}

// Register creates a new offline account. Registering an existing name
// is rejected without touching the registry.
func (u *Users) Register(name, password string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, a := range u.accounts {
		if a.Name == name {
			return ErrUserExists
		}
	}
	u.accounts = append(u.accounts, models.Account{Name: name, Password: password})
	u.persistLocked()
	return nil
}

func (u *Users) Exists(name string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, a := range u.accounts {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SetOnline flips the account's presence flag and persists the set.
// Unknown names are ignored.
func (u *Users) SetOnline(name string, online bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for i := range u.accounts {
		if u.accounts[i].Name == name {
			u.accounts[i].Online = online
			u.persistLocked()
			return
		}
	}
}

// All returns a snapshot of every account.
func (u *Users) All() []models.Account {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]models.Account, len(u.accounts))
	copy(out, u.accounts)
	return out
}

func (u *Users) persistLocked() {
	if u.saver == nil {
		return
	}
	if err := u.saver.SaveAccounts(u.accounts); err != nil {
		log.Printf("Failed to save accounts: %v", err)
	}
}
