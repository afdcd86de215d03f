package models

import (
	"testing"
	"time"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID == "" {
		t.Fatal("expected base model ID to be generated")
	}
}

func TestBaseModelBeforeCreateKeepsExistingID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID != "fixed" {
		t.Fatalf("expected ID to be preserved, got %q", base.ID)
	}
}

func TestEmbeddedModelsUseBaseBeforeCreate(t *testing.T) {
	cases := []struct {
		name  string
		model func() *BaseModel
	}{
		{"account", func() *BaseModel {
			a := &Account{}
			return &a.BaseModel
		}},
		{"single_use_token", func() *BaseModel {
			s := &SingleUseToken{}
			return &s.BaseModel
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			base := tc.model()
			if err := base.BeforeCreate(nil); err != nil {
				t.Fatalf("before create: %v", err)
			}
			if base.ID == "" {
				t.Fatal("expected ID to be generated")
			}
		})
	}
}

func TestAccountHasPassword(t *testing.T) {
	var nilAccount *Account
	if nilAccount.HasPassword() {
		t.Fatal("nil account must not report a password")
	}

	empty := ""
	hash := "stored"
	cases := map[string]struct {
		account Account
		want    bool
	}{
		"no credential":    {Account{}, false},
		"empty credential": {Account{PasswordHash: &empty}, false},
		"with credential":  {Account{PasswordHash: &hash}, true},
	}
	for name, tc := range cases {
		if got := tc.account.HasPassword(); got != tc.want {
			t.Fatalf("%s: HasPassword() = %v, want %v", name, got, tc.want)
		}
	}
}

func TestSessionIsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := Session{ExpiresAt: now}

	if session.IsExpired(now) {
		t.Fatal("session expiring exactly now is still valid")
	}
	if !session.IsExpired(now.Add(time.Second)) {
		t.Fatal("expected session to be expired one second later")
	}
}
