package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safarinest/hotel-booking-backend/internal/models"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.CustomerDetail{})
	require.NoError(t, err)

	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{
		Name:         "Amina Odhiambo",
		Email:        "amina@example.com",
		PasswordHash: "hashed",
		Role:         models.RoleCustomer,
		Status:       models.UserStatusActive,
	}
	err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", got.Email)
	assert.Equal(t, models.RoleCustomer, got.Role)

	byEmail, err := repo.GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{
		Name: "Brian", Email: "brian@example.com", PasswordHash: "h", Role: models.RoleStaff, Status: 1,
	}))

	exists, err := repo.ExistsByEmail(ctx, "brian@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_List(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	users := []*models.User{
		{Name: "Alice", Email: "alice@example.com", PasswordHash: "h", Role: models.RoleCustomer, Status: 1},
		{Name: "Bob", Email: "bob@example.com", PasswordHash: "h", Role: models.RoleStaff, Status: 1},
		{Name: "Carol", Email: "carol@example.com", PasswordHash: "h", Role: models.RoleAdmin, Status: 1},
	}
	for _, u := range users {
		require.NoError(t, repo.Create(ctx, u))
	}

	list, total, err := repo.List(ctx, 0, 10, map[string]interface{}{"role": models.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].Name)

	list, total, err = repo.List(ctx, 0, 10, map[string]interface{}{"keyword": "example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 3)
}

func TestUserRepository_CustomerDetail(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "Dina", Email: "dina@example.com", PasswordHash: "h", Role: models.RoleCustomer, Status: 1}
	require.NoError(t, repo.Create(ctx, user))

	has, err := repo.HasCustomerDetail(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, has)

	detail := &models.CustomerDetail{UserID: user.ID, Phone: "0712345678"}
	require.NoError(t, repo.SaveCustomerDetail(ctx, detail))
	assert.NotZero(t, detail.ID)

	has, err = repo.HasCustomerDetail(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, has)

	// Upsert keeps the same row.
	addr := "Moi Avenue, Nairobi"
	updated := &models.CustomerDetail{UserID: user.ID, Phone: "0798765432", Address: &addr}
	require.NoError(t, repo.SaveCustomerDetail(ctx, updated))
	assert.Equal(t, detail.ID, updated.ID)

	got, err := repo.GetCustomerDetail(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "0798765432", got.Phone)
	require.NotNil(t, got.Address)
	assert.Equal(t, addr, *got.Address)

	withDetail, err := repo.GetByIDWithDetail(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, withDetail.CustomerDetail)
	assert.Equal(t, "0798765432", withDetail.CustomerDetail.Phone)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "Eve", Email: "eve@example.com", PasswordHash: "h", Role: models.RoleCustomer, Status: 1}
	require.NoError(t, repo.Create(ctx, user))

	err := repo.UpdateFields(ctx, user.ID, map[string]interface{}{"role": models.RoleStaff, "status": int8(0)})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, got.Role)
	assert.Equal(t, int8(0), got.Status)
}
