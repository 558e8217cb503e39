package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"postboard/internal/auth"
	"postboard/internal/service"
)

// Authenticator is the auth core as seen by the HTTP layer.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (auth.IssuedToken, error)
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth           Authenticator
	users          service.UserService
	posts          service.PostService
	logger         logrus.FieldLogger
	maxUploadBytes int64
}

func NewHandler(authenticator Authenticator, users service.UserService, posts service.PostService, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		auth:           authenticator,
		users:          users,
		posts:          posts,
		logger:         logger,
		maxUploadBytes: maxAttachmentBytes,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	guard := h.requireAuth()

	api := router.Group("/api")
	{
		api.GET("/health", h.health)

		api.POST("/auth/login", h.login)
		api.GET("/auth/me", guard, h.me)

		api.POST("/users", h.createUser)
		api.GET("/users", h.listUsers)
		api.GET("/users/search", h.searchUsers)
		api.GET("/users/:id", h.getUser)
		api.PUT("/users/:id", guard, h.updateUser)
		api.PUT("/users/:id/password", guard, h.changePassword)
		api.DELETE("/users/:id", guard, h.deleteUser)

		api.POST("/posts", guard, h.createPost)
		api.GET("/posts", h.listPosts)
		api.GET("/posts/:id", h.getPost)
		api.PUT("/posts/:id", guard, h.updatePost)
		api.DELETE("/posts/:id", guard, h.deletePost)
		api.POST("/posts/:id/attachments", guard, h.uploadAttachment)
		api.GET("/posts/:id/attachments/:attachmentID", h.getAttachment)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	count, err := h.users.Count(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "users_count": count})
}
