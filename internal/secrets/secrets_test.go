package secrets

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestSetGetDelete(t *testing.T) {
	keyring.MockInit()

	if err := Set(NiceboardAPIKey, "  nb-secret \n"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Get(NiceboardAPIKey)
	if err != nil || got != "nb-secret" {
		t.Fatalf("Get = %q, %v; want nb-secret", got, err)
	}

	if err := Delete(NiceboardAPIKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := Get(NiceboardAPIKey); err != nil || got != "" {
		t.Errorf("Get after delete = %q, %v; want empty", got, err)
	}
	if err := Delete(NiceboardAPIKey); err != nil {
		t.Errorf("deleting a missing secret should succeed, got %v", err)
	}
}

func TestSetRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	if err := Set(OpenAIAPIKey, "   "); err == nil {
		t.Error("expected error for empty secret")
	}
	if err := Set("", "x"); err == nil {
		t.Error("expected error for empty account")
	}
}

func TestResolve(t *testing.T) {
	keyring.MockInit()
	if err := Set(JobsPikrAuthKey, "from-keyring"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		configured string
		account    string
		want       string
	}{
		{"config wins", "from-config", JobsPikrAuthKey, "from-config"},
		{"keyring fallback", "", JobsPikrAuthKey, "from-keyring"},
		{"nothing stored", " ", JobsPikrClientID, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.configured, tt.account)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKnown(t *testing.T) {
	if !Known(SlackWebhookURL) || Known("github-token") {
		t.Error("Known() does not match Accounts")
	}
}
