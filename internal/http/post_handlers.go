package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"postboard/internal/domain"
	"postboard/internal/service"
)

const maxAttachmentBytes = 32 << 20

type postRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type PostResponse struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Content     string               `json:"content"`
	UserID      int64                `json:"user_id"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
	Attachments []AttachmentResponse `json:"attachments"`
}

type AttachmentResponse struct {
	ID          int64  `json:"id"`
	PostID      int64  `json:"post_id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	CreatedAt   string `json:"created_at"`
}

func (h *Handler) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), identityFrom(c), req.Title, req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postToResponse(*post))
}

func (h *Handler) listPosts(c *gin.Context) {
	// user_id=0 lists every post, like an absent filter
	var userID int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		userID = id
	}

	posts, err := h.posts.List(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := pathID(c, "id", "post")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) updatePost(c *gin.Context) {
	id, ok := pathID(c, "id", "post")
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Update(c.Request.Context(), identityFrom(c), id, req.Title, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to edit this post"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := pathID(c, "id", "post")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), identityFrom(c), id); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this post"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Post %d deleted", id)})
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	id, ok := pathID(c, "id", "post")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("attachment exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	attachment, err := h.posts.AddAttachment(c.Request.Context(), identityFrom(c), id, service.AttachmentUpload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachmentToResponse(*attachment))
}

func (h *Handler) getAttachment(c *gin.Context) {
	postID, ok := pathID(c, "id", "post")
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "attachmentID", "attachment")
	if !ok {
		return
	}

	url, err := h.posts.AttachmentURL(c.Request.Context(), postID, attachmentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func postToResponse(post domain.Post) PostResponse {
	resp := PostResponse{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		UserID:      post.UserID,
		CreatedAt:   post.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   post.UpdatedAt.Format(time.RFC3339),
		Attachments: make([]AttachmentResponse, len(post.Attachments)),
	}
	for i := range post.Attachments {
		resp.Attachments[i] = attachmentToResponse(post.Attachments[i])
	}
	return resp
}

func attachmentToResponse(a domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		PostID:      a.PostID,
		Name:        a.Name,
		Size:        a.Size,
		ContentType: a.ContentType,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}
