package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/models"
	"github.com/guildpost/guildpost/services"
	"github.com/guildpost/guildpost/utils"
)

// ResponseController manages responses to posts and the personal cabinet.
type ResponseController struct {
	db       *gorm.DB
	notifier *services.Notifier
}

// NewResponseController creates a new ResponseController instance.
func NewResponseController(db *gorm.DB, notifier *services.Notifier) *ResponseController {
	return &ResponseController{db: db, notifier: notifier}
}

// CreateResponse adds a response to a post and notifies the post author.
func (r *ResponseController) CreateResponse(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	text := strings.TrimSpace(utils.Sanitize(req.Text))
	if len([]rune(text)) < 10 {
		utils.Error(ctx, http.StatusBadRequest, 40031, "response text must be at least 10 characters")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := r.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	resp := models.Response{
		PostID: post.ID,
		UserID: userID,
		Text:   text,
		Status: models.ResponsePending,
	}

	if err := r.db.Create(&resp).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create response")
		return
	}

	go r.notifier.NotifyResponseCreated(post, resp)
	logAction(r.db, &userID, fmt.Sprintf("response_create:%d", resp.ID), ctx.ClientIP())

	utils.Success(ctx, gin.H{"response": resp})
}

// GetResponse returns a single response. Pending and rejected responses are
// visible only to their author and the post author; accepted ones are public.
func (r *ResponseController) GetResponse(ctx *gin.Context) {
	resp, post, ok := r.loadResponse(ctx)
	if !ok {
		return
	}

	if !resp.IsAccepted() {
		userID, _ := getUserID(ctx)
		if userID != resp.UserID && userID != post.UserID && !isStaff(ctx) {
			utils.Error(ctx, http.StatusForbidden, 40330, "response not visible")
			return
		}
	}

	utils.Success(ctx, gin.H{"response": resp})
}

// AcceptResponse marks a response accepted and notifies its author.
// Accept wins over a prior reject.
func (r *ResponseController) AcceptResponse(ctx *gin.Context) {
	resp, post, ok := r.loadResponse(ctx)
	if !ok {
		return
	}

	userID, authed := getUserID(ctx)
	if !authed {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40331, "only the post author can accept responses")
		return
	}

	resp.Accept()
	if err := r.db.Model(&models.Response{}).Where("id = ?", resp.ID).
		Update("status", models.ResponseAccepted).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to accept response")
		return
	}

	go r.notifier.NotifyResponseAccepted(post, resp)
	logAction(r.db, &userID, fmt.Sprintf("response_accept:%d", resp.ID), ctx.ClientIP())

	utils.Success(ctx, gin.H{"response": resp})
}

// RejectResponse marks a response rejected. The row is kept so the post author
// can still see who offered.
func (r *ResponseController) RejectResponse(ctx *gin.Context) {
	resp, post, ok := r.loadResponse(ctx)
	if !ok {
		return
	}

	userID, authed := getUserID(ctx)
	if !authed {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40332, "only the post author can reject responses")
		return
	}

	resp.Reject()
	if err := r.db.Model(&models.Response{}).Where("id = ?", resp.ID).
		Update("status", models.ResponseRejected).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to reject response")
		return
	}

	logAction(r.db, &userID, fmt.Sprintf("response_reject:%d", resp.ID), ctx.ClientIP())
	utils.Success(ctx, gin.H{"response": resp})
}

// DeleteResponse removes a response entirely. Allowed for the response author
// and the post author.
func (r *ResponseController) DeleteResponse(ctx *gin.Context) {
	resp, post, ok := r.loadResponse(ctx)
	if !ok {
		return
	}

	userID, authed := getUserID(ctx)
	if !authed {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if resp.UserID != userID && post.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40333, "you cannot delete this response")
		return
	}

	if err := r.db.Delete(&models.Response{}, resp.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to delete response")
		return
	}

	logAction(r.db, &userID, fmt.Sprintf("response_delete:%d", resp.ID), ctx.ClientIP())
	utils.Success(ctx, gin.H{"message": "response deleted"})
}

// Cabinet returns the authenticated user's posts, responses and incoming
// responses, plus their subscription state.
func (r *ResponseController) Cabinet(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	statusFilter := strings.TrimSpace(ctx.Query("status"))
	postFilter := strings.TrimSpace(ctx.Query("post"))

	var myPosts []models.Post
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&myPosts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to list posts")
		return
	}

	myResponses := r.db.Preload("Post").Where("user_id = ?", userID).Order("created_at DESC")
	if statusFilter != "" {
		myResponses = myResponses.Where("status = ?", statusFilter)
	}
	var outgoing []models.Response
	if err := myResponses.Find(&outgoing).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to list responses")
		return
	}

	incomingQuery := r.db.Preload("User").
		Joins("JOIN posts ON posts.id = responses.post_id").
		Where("posts.user_id = ?", userID).
		Order("responses.created_at DESC")
	if statusFilter != "" {
		incomingQuery = incomingQuery.Where("responses.status = ?", statusFilter)
	}
	if postFilter != "" {
		incomingQuery = incomingQuery.Where("responses.post_id = ?", postFilter)
	}
	var incoming []models.Response
	if err := incomingQuery.Find(&incoming).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to list incoming responses")
		return
	}

	var subscriptions []models.Subscription
	if err := r.db.Where("user_id = ?", userID).Find(&subscriptions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to list subscriptions")
		return
	}

	utils.Success(ctx, gin.H{
		"posts":              myPosts,
		"responses":          outgoing,
		"incoming_responses": incoming,
		"subscriptions":      subscriptions,
	})
}

// loadResponse resolves the :id path parameter into a response and its post.
func (r *ResponseController) loadResponse(ctx *gin.Context) (models.Response, models.Post, bool) {
	var resp models.Response
	err := r.db.Preload("User").First(&resp, ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "response not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50039, "failed to load response")
		}
		return models.Response{}, models.Post{}, false
	}

	var post models.Post
	if err := r.db.First(&post, resp.PostID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load post")
		return models.Response{}, models.Post{}, false
	}

	return resp, post, true
}
