package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	"wework-hub/utils/logger"
)

// SessionHandler exposes the visitor's session snapshot as JSON for
// script-driven pages.
type SessionHandler struct {
	wait time.Duration
}

// NewSessionHandler creates a new session handler. wait bounds how long
// GET /api/session?wait=1 blocks on an unsettled bootstrap.
func NewSessionHandler(wait time.Duration) *SessionHandler {
	return &SessionHandler{wait: wait}
}

type sessionUser struct {
	Kind        string                 `json:"kind"`
	ID          string                 `json:"id"`
	Email       string                 `json:"email"`
	DisplayName string                 `json:"displayName"`
	Student     *domain.StudentProfile `json:"student,omitempty"`
	Company     *domain.CompanyProfile `json:"company,omitempty"`
}

type sessionResponse struct {
	Status          string       `json:"status"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	User            *sessionUser `json:"user"`
}

func toSessionResponse(snap domain.Snapshot) sessionResponse {
	resp := sessionResponse{
		Status:          snap.Status.String(),
		IsAuthenticated: snap.IsAuthenticated(),
		IsLoading:       snap.IsLoading(),
	}
	if u := snap.User; resp.IsAuthenticated {
		resp.User = &sessionUser{
			Kind:        u.Kind.String(),
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName(),
			Student:     u.Student,
			Company:     u.Company,
		}
	}
	return resp
}

// Handle processes GET /api/session.
func (h *SessionHandler) Handle(c echo.Context) error {
	v, err := visitor(c)
	if err != nil {
		return err
	}
	if c.QueryParam("wait") != "" && h.wait > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.wait)
		_ = v.Store.Wait(ctx)
		cancel()
	}
	return c.JSON(http.StatusOK, toSessionResponse(v.Store.Snapshot()))
}

// Refresh processes POST /api/session/refresh.
func (h *SessionHandler) Refresh(c echo.Context) error {
	v, err := visitor(c)
	if err != nil {
		return err
	}
	ctx := logger.WithOperation(c.Request().Context(), "refresh_session")
	if err := v.Store.RefreshFromServer(ctx); err != nil {
		return mapDomainError(err).SetInternal(err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(v.Store.Snapshot()))
}
