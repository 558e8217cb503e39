package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"postboard/internal/auth"
	"postboard/internal/service"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token.Token,
		TokenType:   auth.TokenType,
		ExpiresIn:   int64(token.ExpiresIn().Seconds()),
	})
}

func (h *Handler) me(c *gin.Context) {
	identity := identityFrom(c)
	if identity == nil {
		h.unauthorized(c, "identity missing")
		return
	}
	userID, err := service.ParseSubject(identity.Subject)
	if err != nil {
		h.unauthorized(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{
		ID:       userID,
		Username: identity.Principal.Username,
		Email:    identity.Principal.Email,
		FullName: identity.Principal.FullName,
	})
}

type ProfileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
