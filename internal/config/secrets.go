package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	secretService   = "studymatch"
	apiTokenAccount = "api_token"
)

// SecretStore holds secrets outside the config backend.
type SecretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

// GetAPIToken returns the local API bearer token, generating and storing a
// new one on first use.
func GetAPIToken(store SecretStore) (string, error) {
	if tok, err := store.Get(secretService, apiTokenAccount); err == nil && tok != "" {
		return tok, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api token: %w", err)
	}
	tok := hex.EncodeToString(buf)
	if err := store.Set(secretService, apiTokenAccount, tok); err != nil {
		return "", fmt.Errorf("storing api token: %w", err)
	}
	return tok, nil
}
