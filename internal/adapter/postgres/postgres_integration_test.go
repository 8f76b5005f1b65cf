//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"nourish/internal/domain"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "nourish",
			"POSTGRES_PASSWORD": "nourish",
			"POSTGRES_DB":       "nourish",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}

	db, err := Open(fmt.Sprintf("postgres://nourish:nourish@%s:%s/nourish?sslmode=disable", host, port.Port()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	alice := &domain.User{Email: "Alice@Example.com", Username: "alice", Goals: domain.DefaultGoals()}
	if err := db.Users().Create(ctx, alice); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := db.Users().Create(ctx, &domain.User{Email: "alice@example.com", Username: "alice2"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate email (case-insensitive): %v", err)
	}
	bob := &domain.User{Email: "bob@example.com", Username: "bob", Goals: domain.DefaultGoals()}
	if err := db.Users().Create(ctx, bob); err != nil {
		t.Fatal(err)
	}

	rice := &domain.Food{Name: "Brown Rice", Nutrients: domain.Nutrients{Calories: 112, Protein: 2.6, Carbs: 23.5, Fat: 0.9, Fiber: 1.8}}
	if err := db.Foods().Create(ctx, rice); err != nil {
		t.Fatal(err)
	}
	shake := &domain.CustomFood{UserID: alice.ID, Name: "Protein_Shake", ServingSize: 250, Nutrients: domain.Nutrients{Calories: 200}}
	if err := db.CustomFoods().Create(ctx, shake); err != nil {
		t.Fatal(err)
	}

	found, err := db.Foods().Search(ctx, "rice", 10)
	if err != nil || len(found) != 1 {
		t.Errorf("food search = %v, %v", found, err)
	}
	if list, _ := db.CustomFoods().Search(ctx, alice.ID, "_", -1); len(list) != 1 {
		t.Errorf("escaped search = %d results", len(list))
	}
	if _, err := db.CustomFoods().Get(ctx, bob.ID, shake.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign custom food: %v", err)
	}

	batch := []domain.FoodEntry{
		{UserID: alice.ID, Ref: domain.CatalogRef{FoodID: rice.ID}, FoodName: rice.Name, Day: "2024-06-15", Slot: domain.Lunch, Quantity: 150},
		{UserID: alice.ID, Ref: domain.CustomRef{CustomFoodID: shake.ID}, FoodName: shake.Name, Day: "2024-06-15", Slot: domain.Snacks, Quantity: 250},
	}
	created, err := db.Entries().CreateBatch(ctx, batch)
	if err != nil || len(created) != 2 {
		t.Fatalf("CreateBatch = %v, %v", created, err)
	}
	bad := []domain.FoodEntry{batch[0], {UserID: bob.ID, Ref: domain.CustomRef{CustomFoodID: shake.ID}, FoodName: "x", Day: "2024-06-15", Slot: domain.Dinner, Quantity: 1}}
	if _, err := db.Entries().CreateBatch(ctx, bad); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("batch with foreign food: %v", err)
	}
	day, _ := db.Entries().ListDay(ctx, alice.ID, "2024-06-15")
	if len(day) != 2 {
		t.Errorf("rolled back batch left %d entries", len(day))
	}
	if _, ok := day[1].Ref.(domain.CustomRef); !ok {
		t.Errorf("ref round trip = %#v", day[1].Ref)
	}

	if err := db.CustomFoods().Delete(ctx, alice.ID, shake.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("delete of referenced custom food: %v", err)
	}

	meal := &domain.SavedMeal{
		UserID: bob.ID,
		Name:   "Imported",
		Items:  []domain.LineItem{{Ref: domain.CustomRef{CustomFoodID: shake.ID}, Name: shake.Name, Quantity: 250, Nutrients: domain.Nutrients{Calories: 200}}},
		Totals: domain.Nutrients{Calories: 200},
	}
	copies := map[int]domain.CustomFood{0: {Name: shake.Name, ServingSize: 250, Nutrients: domain.Nutrients{Calories: 200}}}
	if err := db.Meals().Import(ctx, meal, copies); err != nil {
		t.Fatalf("import: %v", err)
	}
	stored, err := db.Meals().Get(ctx, bob.ID, meal.ID)
	if err != nil {
		t.Fatal(err)
	}
	ref := stored.Items[0].Ref.(domain.CustomRef)
	if _, err := db.CustomFoods().Get(ctx, bob.ID, ref.CustomFoodID); err != nil {
		t.Errorf("imported food not owned by importer: %v", err)
	}

	img := "1_20240615_120000_abcd1234.png"
	rc := &domain.CommunityRecipe{
		UserID: alice.ID, AuthorName: "alice", Title: "Rice Bowl", Instructions: "Cook.", ImageName: &img,
		Items: []domain.LineItem{{Ref: domain.CatalogRef{FoodID: rice.ID}, Name: rice.Name, Quantity: 150}},
	}
	if err := db.Recipes().Create(ctx, rc); err != nil {
		t.Fatal(err)
	}
	if n, err := db.Recipes().Like(ctx, rc.ID); err != nil || n != 1 {
		t.Errorf("like = %d, %v", n, err)
	}
	list, total, err := db.Recipes().List(ctx, "bowl", domain.Page{Number: 1, PerPage: 20})
	if err != nil || total != 1 || list[0].Likes != 1 {
		t.Errorf("list = %v, %d, %v", list, total, err)
	}
	if _, err := db.Recipes().Delete(ctx, bob.ID, rc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("non-author delete: %v", err)
	}

	if err := db.Users().Delete(ctx, alice.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, total, _ := db.Recipes().List(ctx, "", domain.Page{Number: 1, PerPage: 20}); total != 0 {
		t.Errorf("recipes survived user delete: %d", total)
	}
	if left, _ := db.Entries().ListDay(ctx, alice.ID, "2024-06-15"); len(left) != 0 {
		t.Errorf("entries survived user delete: %d", len(left))
	}
}
