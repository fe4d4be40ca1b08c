package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/equipe-visionarios/imoveis-api/mailer"
	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/equipe-visionarios/imoveis-api/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, u *models.User) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expire time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) error
}

type TokenIssuer interface {
	GenerateJWT(userID, role string) (string, error)
}

// MailQueue accepts messages for background delivery.
type MailQueue interface {
	Enqueue(msg mailer.Message) bool
}

type UserService struct {
	Store  UserStore
	Tokens TokenIssuer
	Images ImageStore

	// Queue carries mail that must not delay the response; Mailer is used
	// when the caller needs the delivery result.
	Queue  MailQueue
	Mailer mailer.Sender

	// Listings is invalidated when a change shows up in cached listings.
	Listings ListingInvalidator

	FrontendURL string
	ResetTTL    time.Duration
	Now         func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// prepareForSave hashes a new plain password and normalizes the phone. It runs
// before every write of a user record.
func prepareForSave(u *models.User, plainPassword string) error {
	if plainPassword != "" {
		hash, err := utils.HashPassword(plainPassword)
		if err != nil {
			return err
		}
		u.Password = hash
	}

	phone, err := utils.NormalizePhone(u.Phone)
	if err != nil {
		return models.NewValidationError(map[string]string{"phone": "telefone inválido: " + err.Error()})
	}
	u.Phone = phone
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResponse, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := s.now()
	u := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Role:      models.RoleUser,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := prepareForSave(u, in.Password); err != nil {
		return nil, err
	}
	if err := s.Store.Insert(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.Tokens.GenerateJWT(u.ID.Hex(), u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.sendWelcome(u)
	return authResponse(u, token), nil
}

func (s *UserService) sendWelcome(u *models.User) {
	if s.Queue == nil {
		return
	}
	msg, err := mailer.WelcomeMessage(u.Email, u.Name)
	if err != nil {
		log.Printf("Failed to build welcome email for %s: %v", u.ID.Hex(), err)
		return
	}
	s.Queue.Enqueue(msg)
}

// Login never tells the caller whether the email or the password was wrong.
func (s *UserService) Login(ctx context.Context, in models.LoginInput) (*models.AuthResponse, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.Store.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(in.Password, u.Password) {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.Tokens.GenerateJWT(u.ID.Hex(), u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return authResponse(u, token), nil
}

func authResponse(u *models.User, token string) *models.AuthResponse {
	return &models.AuthResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Phone: u.Phone,
		Token: token,
	}
}

func (s *UserService) Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.Store.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies the supplied fields. A non-nil avatar is uploaded to
// the image store and replaces the current one.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate, avatar *ImageFile) (*models.User, error) {
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		upd.Email = &email
	}
	if err := validateStruct(upd); err != nil {
		return nil, err
	}

	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := models.Owner{ID: u.ID, Name: u.Name, Email: u.Email}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil && *upd.Email != "" {
		u.Email = *upd.Email
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}

	if avatar != nil {
		img, err := s.Images.Upload(ctx, avatar.Name, avatar.Body)
		if err != nil {
			return nil, fmt.Errorf("upload avatar: %w", err)
		}
		u.Avatar = img.URL
	}

	password := ""
	if upd.Password != nil {
		password = *upd.Password
	}
	if err := prepareForSave(u, password); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now()

	if err := s.Store.Save(ctx, u); err != nil {
		return nil, err
	}
	// Listings embed the owner's name and email.
	if u.Name != owner.Name || u.Email != owner.Email {
		invalidateListings(s.Listings)
	}
	return u, nil
}

// ForgotPassword stores the hash of a fresh reset token and mails the raw
// token. When the mail cannot be sent the token is cleared again.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return models.NewValidationError(map[string]string{"email": "campo obrigatório"})
	}

	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw, hash, err := utils.NewResetToken()
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}
	if err := s.Store.SetResetToken(ctx, u.ID, hash, s.now().Add(s.ResetTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := strings.TrimSuffix(s.FrontendURL, "/") + "/reset-password/" + raw
	msg, err := mailer.ResetPasswordMessage(u.Email, u.Name, resetURL, s.ResetTTL)
	if err == nil {
		err = s.Mailer.Send(ctx, msg)
	}
	if err != nil {
		if clearErr := s.Store.ClearResetToken(ctx, u.ID); clearErr != nil {
			log.Printf("Failed to clear reset token for %s: %v", u.ID.Hex(), clearErr)
		}
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token. A token matches at most once.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return models.ErrResetTokenInvalid
	}
	if len(password) < 6 {
		return models.NewValidationError(map[string]string{"password": "deve ter ao menos 6 caracteres"})
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.ConsumeResetToken(ctx, utils.HashResetToken(token), s.now(), hash)
}
