package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/middleware"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/validation"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
	actionTokenTTL  = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrDisplayNameTaken   = errors.New("display name already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// MailSender is what AuthService needs from the mailer. Sends are best-effort:
// a failure is logged and never blocks the auth flow.
type MailSender interface {
	SendVerification(to, displayName, token string) error
	SendPasswordReset(to, token string) error
}

type AuthService struct {
	userRepo         repository.UserRepositoryInterface
	refreshTokenRepo repository.RefreshTokenRepositoryInterface
	mailer           MailSender
}

func NewAuthService(userRepo repository.UserRepositoryInterface, refreshTokenRepo repository.RefreshTokenRepositoryInterface, mailer MailSender) *AuthService {
	return &AuthService{userRepo: userRepo, refreshTokenRepo: refreshTokenRepo, mailer: mailer}
}

type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthSession struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	ExpiresIn    int64               `json:"expires_in"`
	User         models.UserResponse `json:"user"`
}

func (s *AuthService) Register(input RegisterInput) (*AuthSession, error) {
	input.Email = validation.NormalizeEmail(input.Email)
	input.Username = validation.NormalizeUsername(input.Username)

	if !validation.ValidateEmail(input.Email) {
		return nil, errors.New("invalid email")
	}
	if !validation.ValidateUsername(input.Username) {
		return nil, errors.New("invalid username")
	}
	if !validation.ValidateDisplayName(input.DisplayName) {
		return nil, errors.New("invalid display name")
	}
	if !validation.ValidatePassword(input.Password) {
		return nil, errors.New("password too short")
	}

	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, ErrEmailTaken
	}
	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.userRepo.FindByDisplayName(input.DisplayName); err == nil {
		return nil, ErrDisplayNameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		DisplayName:  input.DisplayName,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		token, err := s.generateActionToken(user, "verify_email")
		if err == nil {
			if err := s.mailer.SendVerification(user.Email, user.DisplayName, token); err != nil {
				log.Printf("level=warn msg=\"verification email failed\" user_id=%d error=%q", user.ID, err)
			}
		}
	}

	return s.issueSession(user)
}

func (s *AuthService) Login(input LoginInput) (*AuthSession, error) {
	user, err := s.userRepo.FindByEmail(validation.NormalizeEmail(input.Email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(user)
}

// Refresh rotates the refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(refreshToken string) (*AuthSession, error) {
	hash := hashToken(refreshToken)

	stored, err := s.refreshTokenRepo.FindValidByHash(hash)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(stored.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.refreshTokenRepo.RevokeByHash(hash); err != nil {
		return nil, err
	}

	return s.issueSession(user)
}

// Logout revokes the presented refresh token. Unknown tokens are not an error.
func (s *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshTokenRepo.RevokeByHash(hashToken(refreshToken))
}

// VerifyEmail consumes a verification token issued at registration.
func (s *AuthService) VerifyEmail(token string) error {
	userID, err := s.parseActionToken(token, "verify_email")
	if err != nil {
		return ErrInvalidToken
	}
	return s.userRepo.MarkEmailVerified(userID)
}

// ForgotPassword emails a reset link. It reports success even when the email
// is unknown so the endpoint does not leak which addresses are registered.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.userRepo.FindByEmail(validation.NormalizeEmail(email))
	if err != nil {
		return nil
	}
	if s.mailer == nil {
		return nil
	}

	token, err := s.generateActionToken(user, "reset_password")
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(user.Email, token); err != nil {
		log.Printf("level=warn msg=\"password reset email failed\" user_id=%d error=%q", user.ID, err)
	}
	return nil
}

func (s *AuthService) ResetPassword(token, newPassword string) error {
	if !validation.ValidatePassword(newPassword) {
		return errors.New("password too short")
	}

	userID, err := s.parseActionToken(token, "reset_password")
	if err != nil {
		return ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	return s.userRepo.Update(user)
}

func (s *AuthService) issueSession(user *models.User) (*AuthSession, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.issueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthSession{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
		User:         user.ToResponse(),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := middleware.Claims{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// issueRefreshToken returns the opaque token; only its SHA-256 hash is stored.
func (s *AuthService) issueRefreshToken(user *models.User) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.refreshTokenRepo.Create(record); err != nil {
		return "", err
	}
	return token, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Action tokens are short-lived JWTs bound to a purpose (email verification,
// password reset) so one kind cannot be replayed as the other.
func (s *AuthService) generateActionToken(user *models.User, purpose string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"purpose": purpose,
		"exp":     time.Now().Add(actionTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func (s *AuthService) parseActionToken(tokenString, purpose string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return 0, ErrInvalidToken
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
