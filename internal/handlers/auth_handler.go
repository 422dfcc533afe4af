package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/httpx"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	if input.Email == "" || input.Password == "" || input.Username == "" || input.DisplayName == "" {
		return httpx.BadRequest(c, "missing_fields", "Email, username, display name, and password are required")
	}

	session, err := h.authService.Register(input)
	if err != nil {
		return httpx.BadRequest(c, "registration_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	if input.Email == "" || input.Password == "" {
		return httpx.BadRequest(c, "missing_fields", "Email and password are required")
	}

	session, err := h.authService.Login(input)
	if err != nil {
		return httpx.Unauthorized(c, "invalid_credentials", "Invalid credentials")
	}

	return c.JSON(session)
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input refreshInput
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return httpx.BadRequest(c, "missing_refresh_token", "refresh_token is required")
	}

	session, err := h.authService.Refresh(input.RefreshToken)
	if err != nil {
		return httpx.Unauthorized(c, "invalid_refresh_token", "Invalid or expired refresh token")
	}

	return c.JSON(session)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input refreshInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	if err := h.authService.Logout(input.RefreshToken); err != nil {
		return httpx.Internal(c, "logout_failed")
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return httpx.BadRequest(c, "missing_token", "token is required")
	}

	if err := h.authService.VerifyEmail(token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return httpx.BadRequest(c, "invalid_token", "Invalid or expired token")
		}
		return httpx.Internal(c, "verification_failed")
	}

	return c.JSON(fiber.Map{"status": "verified"})
}

type forgotPasswordInput struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input forgotPasswordInput
	if err := c.BodyParser(&input); err != nil || input.Email == "" {
		return httpx.BadRequest(c, "missing_email", "email is required")
	}

	if err := h.authService.ForgotPassword(input.Email); err != nil {
		return httpx.Internal(c, "reset_request_failed")
	}

	// Always the same answer so addresses cannot be probed.
	return c.JSON(fiber.Map{"status": "ok"})
}

type resetPasswordInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input resetPasswordInput
	if err := c.BodyParser(&input); err != nil || input.Token == "" || input.Password == "" {
		return httpx.BadRequest(c, "missing_fields", "token and password are required")
	}

	if err := h.authService.ResetPassword(input.Token, input.Password); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return httpx.BadRequest(c, "invalid_token", "Invalid or expired token")
		}
		return httpx.BadRequest(c, "reset_failed", err.Error())
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
