package users

import (
	"context"

	"github.com/rolodexhq/rolodex/pkg/auth"
)

// Directory adapts the store to the read-only view the authentication
// core expects
type Directory struct {
	store *Store
}

// NewDirectory wraps a store for use as an auth.Directory
func NewDirectory(store *Store) *Directory {
	return &Directory{store: store}
}

var _ auth.Directory = (*Directory)(nil)

func (d *Directory) FindByUsername(ctx context.Context, username string) (*auth.UserRecord, error) {
	return record(d.store.FindByUsername(ctx, username))
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	return record(d.store.FindByEmail(ctx, email))
}

func (d *Directory) FindByID(ctx context.Context, id int64) (*auth.UserRecord, error) {
	return record(d.store.FindByID(ctx, id))
}

func record(user *User, err error) (*auth.UserRecord, error) {
	if err != nil || user == nil {
		return nil, err
	}
	return user.Record(), nil
}
