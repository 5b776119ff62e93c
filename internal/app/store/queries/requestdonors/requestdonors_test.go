package requestdonors_test

import (
	"encoding/json"
	"testing"

	"github.com/bloodbridge/bloodbridge/internal/app/store/queries/requestdonors"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/bloodbridge/bloodbridge/internal/testutil"
)

func TestForRequester_JoinsAndPreservesUnmatched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	withDonor := fixtures.CreateDonationRequest(ctx, "req@example.com", models.DonationInProgress, nil)
	fixtures.CreateDonationRequest(ctx, "req@example.com", models.DonationPending, nil)
	fixtures.CreateDonationRequest(ctx, "someone-else@example.com", models.DonationPending, nil)
	fixtures.CreateDonorInfo(ctx, "donor@example.com", withDonor.Hex(), "2024-05-01T00:00:00.000Z")

	rows, err := requestdonors.ForRequester(ctx, db, "req@example.com")
	if err != nil {
		t.Fatalf("ForRequester failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (one per request), got %d", len(rows))
	}

	var joined, unjoined int
	for _, row := range rows {
		if row.Request[models.KeyRequesterEmail] != "req@example.com" {
			t.Errorf("row from wrong requester: %v", row.Request)
		}
		if row.Donor == nil {
			unjoined++
			continue
		}
		joined++
		if row.Donor[models.KeyDonorEmail] != "donor@example.com" {
			t.Errorf("joined donor: %v", row.Donor)
		}
	}
	if joined != 1 || unjoined != 1 {
		t.Errorf("joined=%d unjoined=%d, want 1 and 1", joined, unjoined)
	}
}

func TestForRequester_NullDonorDetailsInJSON(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonationRequest(ctx, "solo@example.com", models.DonationPending, nil)

	rows, err := requestdonors.ForRequester(ctx, db, "solo@example.com")
	if err != nil {
		t.Fatalf("ForRequester failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	raw, err := json.Marshal(rows[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, ok := out["donorDetails"]
	if !ok {
		t.Fatal("donorDetails key missing")
	}
	if v != nil {
		t.Errorf("donorDetails: got %v, want null", v)
	}
	if out[models.KeyRequesterEmail] != "solo@example.com" {
		t.Errorf("request fields not flattened: %v", out)
	}
}

func TestForRequester_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rows, err := requestdonors.ForRequester(ctx, db, "nobody@example.com")
	if err != nil {
		t.Fatalf("ForRequester failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", rows)
	}
}
