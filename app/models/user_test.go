package models

import "testing"

func TestFullName(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{first: "Ada", last: "Lovelace", want: "Ada Lovelace"},
		{first: "Ada", last: "", want: "Ada"},
		{first: "", last: "Lovelace", want: "Lovelace"},
		{first: "", last: "", want: ""},
		{first: " Ada ", last: " Lovelace ", want: "Ada Lovelace"},
	}

	for _, tt := range tests {
		if got := FullName(tt.first, tt.last); got != tt.want {
			t.Fatalf("FullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestIsEntitled(t *testing.T) {
	for _, status := range []string{SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue} {
		u := User{SubscriptionStatus: status}
		if !u.IsEntitled() {
			t.Fatalf("expected status %q to be entitling", status)
		}
	}
	for _, status := range []string{SubscriptionStatusCanceled, SubscriptionStatusIncomplete, "", "paused"} {
		u := User{SubscriptionStatus: status}
		if u.IsEntitled() {
			t.Fatalf("expected status %q to be non-entitling", status)
		}
	}
}

func TestHasSubscription(t *testing.T) {
	var none User
	if none.HasSubscription() {
		t.Fatalf("expected no subscription on empty user")
	}
	u := User{SubscriptionID: "sub_1", SubscriptionStatus: SubscriptionStatusCanceled}
	if !u.HasSubscription() {
		t.Fatalf("expected canceled subscription to still count as attached")
	}
}

func TestUserValidate(t *testing.T) {
	valid := User{ClerkID: "user_1", Email: "ada@example.com", Name: "Ada"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid user, got %v", err)
	}

	invalid := User{ClerkID: "user_1", Email: "not-an-email"}
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected validation error for bad email")
	}
}
