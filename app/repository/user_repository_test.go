package repository

import (
	"testing"

	"github.com/gmackie/clerk-stripe-starter-sub001/app/models"
)

func TestUpsertAssignments(t *testing.T) {
	tests := []struct {
		name     string
		user     models.User
		wantName bool
	}{
		{name: "with name claim", user: models.User{ClerkID: "usr_1", Email: "a@example.com", Name: "Ada Lovelace"}, wantName: true},
		{name: "no name claim", user: models.User{ClerkID: "usr_1", Email: "a@example.com"}, wantName: false},
		{name: "whitespace name claim", user: models.User{ClerkID: "usr_1", Email: "a@example.com", Name: "  "}, wantName: false},
	}

	// A self-service sync without a name claim must not blank an existing
	// display name on the conflict path.
	for _, tt := range tests {
		cols := upsertAssignments(&tt.user)

		hasName := false
		hasEmail := false
		for _, col := range cols {
			switch col {
			case "name":
				hasName = true
			case "email":
				hasEmail = true
			}
		}
		if hasName != tt.wantName {
			t.Fatalf("%s: name column included = %v, want %v (cols %v)", tt.name, hasName, tt.wantName, cols)
		}
		if !hasEmail {
			t.Fatalf("%s: email must always be refreshed", tt.name)
		}
	}
}
