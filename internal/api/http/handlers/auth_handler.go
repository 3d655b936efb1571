package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostres/internal/api/dto"
	"github.com/spec-kit/hostres/internal/auth"
	"github.com/spec-kit/hostres/internal/service"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Type,
		Designation: req.Designation,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAuthResponse(res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password, req.Type)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(res))
}

// CheckToken handles POST /auth and echoes the verified token payload.
func (h *AuthHandler) CheckToken(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return apperrors.NewUnauthorized("Token not provided")
	}
	claims, err := h.auth.CheckToken(token)
	if err != nil {
		return err
	}

	payload := dto.TokenPayload{UserID: claims.UserID, Role: claims.Role}
	if claims.IssuedAt != nil {
		payload.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		payload.Exp = claims.ExpiresAt.Unix()
	}
	return c.JSON(payload)
}

// GetUser handles POST /auth/getUser. It answers null for unknown ids.
func (h *AuthHandler) GetUser(c *fiber.Ctx) error {
	var req dto.GetUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	summary, err := h.auth.GetUser(c.UserContext(), req.UserID)
	if err != nil {
		return err
	}
	if summary == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString("null")
	}
	return c.JSON(summary)
}
