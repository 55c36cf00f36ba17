// internal/cred/store.go
package cred

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "dbdeck"

// ErrStoreUnavailable reports that the platform secret store could not be
// reached. It is non-fatal: resolution falls back to prompting.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Store is the secret store consumed by the resolver, keyed by profile id.
// A lookup miss is not an error; found distinguishes it from store failure.
type Store interface {
	Get(profileID string) (secret string, found bool, err error)
	Set(profileID, secret string) error
	Delete(profileID string) error
}

// KeyringStore keeps secrets in the system keyring
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the system keyring
func NewKeyringStore() (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &KeyringStore{ring: ring}, nil
}

// Get retrieves the secret stored for a profile
func (k *KeyringStore) Get(profileID string) (string, bool, error) {
	item, err := k.ring.Get(profileID)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return string(item.Data), true, nil
}

// Set stores the secret for a profile
func (k *KeyringStore) Set(profileID, secret string) error {
	err := k.ring.Set(keyring.Item{
		Key:  profileID,
		Data: []byte(secret),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the secret for a profile
func (k *KeyringStore) Delete(profileID string) error {
	err := k.ring.Remove(profileID)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
