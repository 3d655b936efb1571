package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hostres/internal/api/dto"
	"github.com/spec-kit/hostres/internal/auth"
	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/service"
	apperrors "github.com/spec-kit/hostres/pkg/util"
)

// IssuesHandler manages issue endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var query dto.IssueListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}

	var list *service.IssueList
	if strings.EqualFold(query.Scope, "public") {
		list, err = h.service.ListPublic(c.UserContext())
	} else {
		list, err = h.service.List(c.UserContext(), caller)
	}
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// CreateIssue POST /issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.service.Create(c.UserContext(), caller, req.ToNewIssue())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.IssueResponse{Issue: issue})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	issue, err := h.service.Get(c.UserContext(), c.Params("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueResponse{Issue: issue})
}

// UpdateIssue PATCH /issues/:id.
func (h *IssuesHandler) UpdateIssue(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.service.Update(c.UserContext(), c.Params("id"), caller, req.ToChanges())
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueResponse{Issue: issue})
}

// DeleteIssue DELETE /issues/:id.
func (h *IssuesHandler) DeleteIssue(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), c.Params("id"), caller); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

// UpvoteIssue POST /issues/:id/upvote.
func (h *IssuesHandler) UpvoteIssue(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	issue, err := h.service.Upvote(c.UserContext(), c.Params("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueResponse{Issue: issue})
}

// IssueHistory GET /issues/:id/history.
func (h *IssuesHandler) IssueHistory(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), c.Params("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueHistoryResponse{History: history, Count: len(history)})
}

func callerFrom(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("Authentication invalid")
	}
	return identity, nil
}
