package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/H-H-E/vercelchat/internal/models"
)

type stubUserStore struct {
	users []*models.User
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	copied := *user
	s.users = append(s.users, &copied)
	return nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserStore) List(ctx context.Context) ([]*models.PublicUser, error) {
	users := make([]*models.PublicUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Public())
	}
	return users, nil
}

func (s *stubUserStore) Update(ctx context.Context, id uuid.UUID, email, passwordHash *string, isAdmin *bool) (*models.User, error) {
	for _, u := range s.users {
		if u.ID != id {
			continue
		}
		if email != nil {
			u.Email = *email
		}
		if passwordHash != nil {
			u.PasswordHash = *passwordHash
		}
		if isAdmin != nil {
			u.IsAdmin = *isAdmin
		}
		copied := *u
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func TestUserService_Create_ShortPasswordRejected(t *testing.T) {
	svc := NewUserService(&stubUserStore{})

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:    "student@example.com",
		Password: "short",
	})
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, present := vErr.Fields["password"]; !present {
		t.Errorf("Expected password field error, got %v", vErr.Fields)
	}
}

func TestUserService_Create_InvalidEmailRejected(t *testing.T) {
	svc := NewUserService(&stubUserStore{})

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:    "not-an-email",
		Password: "secret123",
	})
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, present := vErr.Fields["email"]; !present {
		t.Errorf("Expected email field error, got %v", vErr.Fields)
	}
}

func TestUserService_Create_PasswordIsHashed(t *testing.T) {
	store := &stubUserStore{}
	svc := NewUserService(store)

	created, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:    "student@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stored, err := store.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Stored user not found: %v", err)
	}
	if stored.PasswordHash == "secret123" {
		t.Fatal("Plaintext password must never be stored")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("Stored hash does not verify against the original password: %v", err)
	}
}

func TestUserService_Create_DuplicateEmailConflicts(t *testing.T) {
	store := &stubUserStore{}
	svc := NewUserService(store)
	ctx := context.Background()

	req := models.CreateUserRequest{Email: "student@example.com", Password: "secret123"}
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err := svc.Create(ctx, req)
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("Expected ConflictError for duplicate email, got %v", err)
	}
	if len(store.users) != 1 {
		t.Errorf("Expected a single stored user, got %d", len(store.users))
	}
}

func TestUserService_Update_RehashesPassword(t *testing.T) {
	store := &stubUserStore{}
	svc := NewUserService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateUserRequest{Email: "student@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(ctx, created.ID, models.UpdateUserRequest{Password: strPtr("newsecret")}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, _ := store.GetByID(ctx, created.ID)
	if stored.PasswordHash == "newsecret" {
		t.Fatal("Updated password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newsecret")); err != nil {
		t.Errorf("Updated hash does not verify: %v", err)
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc := NewUserService(&stubUserStore{})

	_, err := svc.Update(context.Background(), uuid.New(), models.UpdateUserRequest{IsAdmin: boolPtr(true)})
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestUserService_Get_NeverExposesHash(t *testing.T) {
	store := &stubUserStore{}
	svc := NewUserService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, models.CreateUserRequest{Email: "student@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Email != "student@example.com" || got.ID != created.ID {
		t.Errorf("Unexpected public projection: %+v", got)
	}
}
