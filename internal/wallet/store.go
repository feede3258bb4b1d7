// internal/wallet/store.go
package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// ConnectedWalletKey is the persisted key holding the last connected wallet name.
const ConnectedWalletKey = "vibes_connected_wallet"

// Store persists session preferences to a YAML file.
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewStore opens the store at path. A missing file is an empty store.
func NewStore(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read wallet store %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat wallet store %s: %w", path, err)
	}
	return &Store{v: v, path: path}, nil
}

// ConnectedWallet returns the last connected wallet name, or "".
func (s *Store) ConnectedWallet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(ConnectedWalletKey)
}

// SetConnectedWallet records name and writes the file.
func (s *Store) SetConnectedWallet(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(ConnectedWalletKey, name)
	return s.write()
}

// Clear forgets the connected wallet.
func (s *Store) Clear() error {
	return s.SetConnectedWallet("")
}

func (s *Store) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create wallet store dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write wallet store %s: %w", s.path, err)
	}
	return nil
}
