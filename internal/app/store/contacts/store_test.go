package contactstore_test

import (
	"testing"

	contactstore "github.com/bloodbridge/bloodbridge/internal/app/store/contacts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/bloodbridge/bloodbridge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_ForcesReadFalse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := store.Create(ctx, models.Document{
		"name":    "Karim",
		"message": "hello",
		"read":    true,
		"_id":     "chosen",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok := res.InsertedID.(primitive.ObjectID); !ok {
		t.Errorf("expected generated ObjectID, got %T", res.InsertedID)
	}

	list, err := store.List(ctx, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 message, got %d", len(list))
	}
	if list[0][models.KeyRead] != false {
		t.Errorf("read: got %v, want false", list[0][models.KeyRead])
	}
	if _, ok := list[0][models.KeyCreatedAt].(string); !ok {
		t.Error("createdAt not set")
	}
}

func TestStore_MarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, _ := store.Create(ctx, models.Document{"message": "one"})
	if _, err := store.Create(ctx, models.Document{"message": "two"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	res, err := store.MarkRead(ctx, first.InsertedID.(primitive.ObjectID).Hex())
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if res.MatchedCount != 1 {
		t.Errorf("MatchedCount: got %d", res.MatchedCount)
	}

	unread, err := store.List(ctx, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(unread) != 1 || unread[0]["message"] != "two" {
		t.Errorf("unread: %v", unread)
	}
}
