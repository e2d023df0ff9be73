package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
)

func TestMaskMiddleware_Listings(t *testing.T) {
	underlying := memory.New()
	masked := middleware.NewMaskMiddleware([]string{"password", "^ssn"})(underlying)

	ctx := context.Background()
	id, err := masked.Insert(ctx, people, domain.Record{
		"username":      "jdoe",
		"user_password": "secret123",
		"ssn":           "999-99-9999",
		"nickname":      "",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	recs, _, err := masked.List(ctx, people, domain.Query{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	rec := recs[0]
	if rec["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if rec["user_password"] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", rec["user_password"])
	}
	if rec["ssn"] != middleware.Mask {
		t.Errorf("SSN should be masked, got: %v", rec["ssn"])
	}
	if rec["nickname"] != "" {
		t.Errorf("Empty values stay empty, got: %v", rec["nickname"])
	}

	stored, err := masked.Get(ctx, people, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored["user_password"] != "secret123" {
		t.Error("Get must return the stored value")
	}
}
