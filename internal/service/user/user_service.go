// Package user provides accounts: registration, login, profiles and
// the customer contact details a booking requires.
package user

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/common/config"
	"github.com/safarinest/hotel-booking-backend/internal/common/crypto"
	"github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/common/jwt"
	"github.com/safarinest/hotel-booking-backend/internal/common/logger"
	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/notify"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// Service manages accounts.
type Service struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	activity   *activity.Service
	jwtManager *jwt.Manager
	notifier   notify.Sender
	aes        *crypto.AES
	bcryptCost int
}

// NewService creates the user service. Field encryption is enabled
// only when cfg carries an AES key.
func NewService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	activitySvc *activity.Service,
	jwtManager *jwt.Manager,
	notifier notify.Sender,
	cfg *config.CryptoConfig,
) (*Service, error) {
	s := &Service{
		db:         db,
		userRepo:   userRepo,
		activity:   activitySvc,
		jwtManager: jwtManager,
		notifier:   notifier,
	}
	if cfg != nil {
		s.bcryptCost = cfg.BcryptCost
		if cfg.AESKey != "" {
			aes, err := crypto.NewAES(cfg.AESKey)
			if err != nil {
				return nil, fmt.Errorf("user: init field encryption: %w", err)
			}
			s.aes = aes
		}
	}
	return s, nil
}

// RegisterRequest creates a customer account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// CustomerDetailRequest upserts the caller's contact profile.
type CustomerDetailRequest struct {
	Phone      string  `json:"phone" binding:"required"`
	Address    *string `json:"address"`
	NationalID *string `json:"national_id"`
}

// CreateUserRequest lets an admin create staff accounts.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required"`
}

// ListUsersRequest filters the user list.
type ListUsersRequest struct {
	Role    string `form:"role"`
	Status  *int8  `form:"status"`
	Keyword string `form:"keyword"`
}

// UserInfo is the API view of an account.
type UserInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    int8      `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomerDetailInfo is the API view of a contact profile. NationalID
// is returned decrypted; handlers decide whether to mask it.
type CustomerDetailInfo struct {
	UserID     int64   `json:"user_id"`
	Phone      string  `json:"phone"`
	Address    *string `json:"address,omitempty"`
	NationalID *string `json:"national_id,omitempty"`
}

// AuthInfo is a logged-in session: the account plus its token pair.
type AuthInfo struct {
	User   *UserInfo      `json:"user"`
	Tokens *jwt.TokenPair `json:"tokens"`
}

// Register creates a customer account and logs it in. The welcome
// notification is best-effort; delivery failure never fails the
// registration.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthInfo, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrEmailExists
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	tokens, err := s.jwtManager.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &user.ID,
		Action:      models.ActionUserRegistered,
		TargetType:  "user",
		TargetID:    &user.ID,
		Description: "account registered",
	})
	if err := s.notifier.Send(ctx, &notify.Notification{
		UserID:  user.ID,
		Email:   user.Email,
		Kind:    notify.KindWelcome,
		Subject: "Welcome",
		Params:  map[string]string{"name": user.Name},
	}); err != nil {
		logger.Warn("welcome notification failed", logger.UserID(user.ID), logger.Err(err))
	}

	return &AuthInfo{User: convertUserInfo(user), Tokens: tokens}, nil
}

// Login authenticates an account. Unknown email and wrong password
// return the same error so the response does not leak which emails
// are registered.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthInfo, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, errors.ErrPasswordError
	}
	if user.Status == models.UserStatusDisabled {
		return nil, errors.ErrAccountDisabled
	}

	tokens, err := s.jwtManager.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &user.ID,
		Action:      models.ActionUserLogin,
		TargetType:  "user",
		TargetID:    &user.ID,
		Description: "logged in",
	})
	return &AuthInfo{User: convertUserInfo(user), Tokens: tokens}, nil
}

// RefreshToken exchanges a refresh token for a new pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	tokens, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenRefreshFail.WithError(err)
	}
	return tokens, nil
}

// GetProfile returns the caller's account.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return convertUserInfo(user), nil
}

// UpdateProfile renames the caller's account.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name string) (*UserInfo, error) {
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"name": name}); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword rotates the caller's password after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if !crypto.VerifyPassword(req.OldPassword, user.PasswordHash) {
		return errors.ErrPasswordError.WithMessage("current password is incorrect")
	}

	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// SaveCustomerDetail upserts the caller's contact profile. The
// national id is encrypted at rest when a key is configured.
func (s *Service) SaveCustomerDetail(ctx context.Context, userID int64, req *CustomerDetailRequest) (*CustomerDetailInfo, error) {
	if !phonePattern.MatchString(req.Phone) {
		return nil, errors.ErrPhoneInvalid
	}

	detail := &models.CustomerDetail{
		UserID:  userID,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if req.NationalID != nil && *req.NationalID != "" {
		stored := *req.NationalID
		if s.aes != nil {
			enc, err := s.aes.Encrypt(stored)
			if err != nil {
				return nil, errors.ErrInternalError.WithError(err)
			}
			stored = enc
		}
		detail.NationalID = &stored
	}

	if err := s.userRepo.SaveCustomerDetail(ctx, detail); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.convertDetailInfo(detail)
}

// GetCustomerDetail returns a contact profile. Customers may only read
// their own; staff may read any.
func (s *Service) GetCustomerDetail(ctx context.Context, actor models.Actor, userID int64) (*CustomerDetailInfo, error) {
	if !actor.IsStaff() && actor.ID != userID {
		return nil, errors.ErrPermissionDenied
	}
	detail, err := s.userRepo.GetCustomerDetail(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCustomerDetailNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.convertDetailInfo(detail)
}

// CreateUser lets an admin create staff or admin accounts.
func (s *Service) CreateUser(ctx context.Context, actor models.Actor, req *CreateUserRequest) (*UserInfo, error) {
	if !actor.IsAdmin() {
		return nil, errors.ErrPermissionDenied
	}
	if !models.IsValidRole(req.Role) {
		return nil, errors.ErrInvalidParams.WithMessage("unknown role")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrEmailExists
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return convertUserInfo(user), nil
}

// ListUsers returns accounts matching the filters. Staff only.
func (s *Service) ListUsers(ctx context.Context, req *ListUsersRequest, offset, limit int) ([]*UserInfo, int64, error) {
	filters := map[string]interface{}{
		"role":    req.Role,
		"keyword": req.Keyword,
	}
	if req.Status != nil {
		filters["status"] = *req.Status
	}

	users, total, err := s.userRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	infos := make([]*UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, convertUserInfo(u))
	}
	return infos, total, nil
}

// SetUserStatus enables or disables an account. Admin only; admins
// cannot disable themselves.
func (s *Service) SetUserStatus(ctx context.Context, actor models.Actor, userID int64, status int8) error {
	if !actor.IsAdmin() {
		return errors.ErrPermissionDenied
	}
	if actor.ID == userID && status == models.UserStatusDisabled {
		return errors.ErrOperationFailed.WithMessage("cannot disable your own account")
	}
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return errors.ErrInvalidParams.WithMessage("unknown status")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"status": status}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if s.bcryptCost > 0 {
		return crypto.HashPasswordWithCost(password, s.bcryptCost)
	}
	return crypto.HashPassword(password)
}

func (s *Service) convertDetailInfo(detail *models.CustomerDetail) (*CustomerDetailInfo, error) {
	info := &CustomerDetailInfo{
		UserID:  detail.UserID,
		Phone:   detail.Phone,
		Address: detail.Address,
	}
	if detail.NationalID != nil {
		id := *detail.NationalID
		if s.aes != nil {
			dec, err := s.aes.Decrypt(id)
			if err != nil {
				return nil, errors.ErrInternalError.WithError(err)
			}
			id = dec
		}
		info.NationalID = &id
	}
	return info, nil
}

func convertUserInfo(u *models.User) *UserInfo {
	return &UserInfo{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
