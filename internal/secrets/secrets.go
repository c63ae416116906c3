package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups boardsync's secrets in the OS keychain.
const KeyringService = "boardsync"

// Accounts under KeyringService.
const (
	NiceboardAPIKey  = "niceboard-api-key"
	JobsPikrClientID = "jobspikr-client-id"
	JobsPikrAuthKey  = "jobspikr-auth-key"
	OpenAIAPIKey     = "openai-api-key"
	SlackWebhookURL  = "slack-webhook-url"
)

// Accounts lists every account `auth set` accepts.
var Accounts = []string{NiceboardAPIKey, JobsPikrClientID, JobsPikrAuthKey, OpenAIAPIKey, SlackWebhookURL}

// Known reports whether account is one of Accounts.
func Known(account string) bool {
	for _, a := range Accounts {
		if a == account {
			return true
		}
	}
	return false
}

// Get returns the stored secret, or "" when none is stored.
func Get(account string) (string, error) {
	v, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s from keyring: %w", account, err)
	}
	return strings.TrimSpace(v), nil
}

// Set stores a secret, replacing any previous value.
func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, strings.TrimSpace(value))
}

// Delete removes a stored secret.
func Delete(account string) error {
	if err := keyring.Delete(KeyringService, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting %s from keyring: %w", account, err)
	}
	return nil
}

// Resolve returns configured when it is set, otherwise the keyring value.
func Resolve(configured, account string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	return Get(account)
}
