package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/model"
)

// newTestDB returns a fresh in-memory database for one test.
//
// t.Helper() makes failures point at the caller's line; t.Cleanup closes
// the database when the test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePark(name string) *model.Park {
	return &model.Park{
		Name:                name,
		MapURL:              "https://maps.example/" + name,
		HasWC:               true,
		HasShop:             false,
		HasAdultSportArea:   true,
		PlaygroundCondition: 4,
		PlaygroundVariety:   3,
		Security:            5,
		TreeCoverage:        2,
		PhotoURL:            "https://photos.example/" + name + ".jpg",
	}
}

func createTestPark(t *testing.T, db *DB, name string) *model.Park {
	t.Helper()
	p := samplePark(name)
	if err := db.CreatePark(context.Background(), p); err != nil {
		t.Fatalf("failed to create test park: %v", err)
	}
	return p
}

func TestCreatePark(t *testing.T) {
	db := newTestDB(t)

	p := samplePark("Riverside")
	if err := db.CreatePark(context.Background(), p); err != nil {
		t.Fatalf("CreatePark() error = %v", err)
	}
	if p.ID == 0 {
		t.Error("CreatePark() did not set park.ID")
	}
}

func TestCreatePark_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	original := createTestPark(t, db, "Riverside")

	found, err := db.GetPark(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetPark() error = %v", err)
	}

	if diff := cmp.Diff(original, found); diff != "" {
		t.Errorf("GetPark() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatePark_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	createTestPark(t, db, "Riverside")

	err := db.CreatePark(context.Background(), samplePark("Riverside"))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreatePark() duplicate error = %v, want ErrConflict", err)
	}
}

func TestGetPark_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetPark(context.Background(), 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPark() error = %v, want ErrNotFound", err)
	}
}

func TestGetParkByName(t *testing.T) {
	db := newTestDB(t)
	created := createTestPark(t, db, "Oak Hill")

	found, err := db.GetParkByName(context.Background(), "Oak Hill")
	if err != nil {
		t.Fatalf("GetParkByName() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	_, err = db.GetParkByName(context.Background(), "Nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetParkByName() missing error = %v, want ErrNotFound", err)
	}
}

func TestListParks_OrderedByName(t *testing.T) {
	db := newTestDB(t)
	for _, name := range []string{"Willow", "Alder", "Maple"} {
		createTestPark(t, db, name)
	}

	parks, err := db.ListParks(context.Background())
	if err != nil {
		t.Fatalf("ListParks() error = %v", err)
	}

	var names []string
	for _, p := range parks {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"Alder", "Maple", "Willow"}, names); diff != "" {
		t.Errorf("ListParks() order mismatch (-want +got):\n%s", diff)
	}
}

func TestListParks_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	parks, err := db.ListParks(context.Background())
	if err != nil {
		t.Fatalf("ListParks() error = %v", err)
	}
	// A nil slice would encode as JSON null instead of [].
	if parks == nil {
		t.Error("ListParks() returned nil, want empty slice")
	}
}

func TestUpdatePark(t *testing.T) {
	db := newTestDB(t)
	p := createTestPark(t, db, "Riverside")

	p.Name = "Riverside Gardens"
	p.HasShop = true
	p.TreeCoverage = 5
	p.PhotoURL = ""
	if err := db.UpdatePark(context.Background(), p); err != nil {
		t.Fatalf("UpdatePark() error = %v", err)
	}

	found, err := db.GetPark(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPark() error = %v", err)
	}
	if diff := cmp.Diff(p, found); diff != "" {
		t.Errorf("after UpdatePark() mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdatePark_NotFound(t *testing.T) {
	db := newTestDB(t)

	p := samplePark("Ghost")
	p.ID = 999
	err := db.UpdatePark(context.Background(), p)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdatePark() error = %v, want ErrNotFound", err)
	}
}

func TestUpdatePark_RenameToExistingName(t *testing.T) {
	db := newTestDB(t)
	createTestPark(t, db, "Alder")
	p := createTestPark(t, db, "Birch")

	p.Name = "Alder"
	err := db.UpdatePark(context.Background(), p)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdatePark() error = %v, want ErrConflict", err)
	}
}

func TestDeletePark(t *testing.T) {
	db := newTestDB(t)
	p := createTestPark(t, db, "Riverside")

	if err := db.DeletePark(context.Background(), p.ID); err != nil {
		t.Fatalf("DeletePark() error = %v", err)
	}

	_, err := db.GetPark(context.Background(), p.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPark() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeletePark_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeletePark(context.Background(), 424242)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeletePark() error = %v, want ErrNotFound", err)
	}
}
