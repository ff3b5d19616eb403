package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/dbtest"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
)

func TestRepositoryCreateAndList(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	customer, err := repo.Create(ctx, CreateUserDTO{Email: "  Amina@Example.com ", FirstName: "Amina", LastName: "Otieno"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if customer.Role != enums.RoleCustomer || customer.Email != "amina@example.com" {
		t.Fatalf("unexpected customer %+v", customer)
	}
	if _, err := repo.Create(ctx, CreateUserDTO{Email: "admin@example.com", FirstName: "Shop", LastName: "Admin", Role: enums.RoleAdmin}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	admins, err := repo.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 1 || admins[0].Email != "admin@example.com" {
		t.Fatalf("unexpected admins %+v", admins)
	}
	if _, err := repo.ListByRole(ctx, enums.UserRole("owner")); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}

	found, err := repo.FindByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found.FullName() != "Amina Otieno" {
		t.Fatalf("unexpected full name %q", found.FullName())
	}
	if dto := FromModel(found); dto.Email != "amina@example.com" {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if _, err := repo.FindByID(ctx, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.Create(ctx, CreateUserDTO{Email: " "}); err == nil {
		t.Fatal("expected blank email to be rejected")
	}
}
