package handlers

import (
	stderrors "errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	apperrors "github.com/helloiwashere/guestbook-backend/errors"
	"github.com/helloiwashere/guestbook-backend/services"
	"github.com/helloiwashere/guestbook-backend/types"
)

const (
	visitorSavedMessage   = "Visitor data saved successfully!"
	feedbackSavedMessage  = "Feedback submitted successfully!"
	emptyFeedbackMessage  = "Feedback cannot be empty"
	invalidPayloadMessage = "Invalid request payload"
)

// GuestbookHandler serves the visitor and feedback endpoints.
type GuestbookHandler struct {
	guestbook GuestbookServiceInterface
}

// NewGuestbookHandler creates a new GuestbookHandler.
func NewGuestbookHandler(guestbook GuestbookServiceInterface) *GuestbookHandler {
	return &GuestbookHandler{guestbook: guestbook}
}

// bindOrError binds a JSON or form-encoded body, picked by Content-Type.
func bindOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		_ = c.Error(apperrors.ValidationFailed(invalidPayloadMessage, err.Error()))
		return false
	}
	return true
}

// SaveVisitor godoc
// @Summary      Sign the guestbook
// @Description  Records a visitor name. The same name is accepted once per duplicate window.
// @Tags         visitors
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      types.VisitorCreate  true  "Visitor payload"
// @Success      200   {object}  types.SaveVisitorResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      429   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /save-visitor [post]
func (h *GuestbookHandler) SaveVisitor(c *gin.Context) {
	var req types.VisitorCreate
	if !bindOrError(c, &req) {
		return
	}

	total, err := h.guestbook.SaveVisitor(c.Request.Context(), req.Name, c.ClientIP())
	if err != nil {
		_ = c.Error(apperrors.FromStoreError(err, "Error saving visitor data"))
		return
	}

	c.JSON(http.StatusOK, types.SaveVisitorResponse{
		Status:        visitorSavedMessage,
		TotalVisitors: total,
	})
}

// GetVisitors godoc
// @Summary      List visitors
// @Description  Returns every visitor, oldest first.
// @Tags         visitors
// @Produce      json
// @Success      200  {array}   types.VisitorView
// @Failure      500  {object}  types.ErrorResponse
// @Router       /get-visitors [get]
func (h *GuestbookHandler) GetVisitors(c *gin.Context) {
	visitors, err := h.guestbook.ListVisitors(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.FromStoreError(err, "Error retrieving visitor data"))
		return
	}

	slices.SortStableFunc(visitors, func(a, b types.VisitorView) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	c.JSON(http.StatusOK, visitors)
}

// SubmitFeedback godoc
// @Summary      Submit feedback
// @Description  Records a feedback message.
// @Tags         feedback
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      types.FeedbackCreate  true  "Feedback payload"
// @Success      200   {object}  types.StatusResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /submit-feedback [post]
func (h *GuestbookHandler) SubmitFeedback(c *gin.Context) {
	var req types.FeedbackCreate
	if !bindOrError(c, &req) {
		return
	}

	if err := h.guestbook.SubmitFeedback(c.Request.Context(), req.Feedback); err != nil {
		if stderrors.Is(err, services.ErrEmptyFeedback) {
			_ = c.Error(apperrors.ValidationFailed(emptyFeedbackMessage, err.Error()))
			return
		}
		_ = c.Error(apperrors.FromStoreError(err, "Error saving feedback"))
		return
	}

	c.JSON(http.StatusOK, types.StatusResponse{Status: feedbackSavedMessage})
}

// GetFeedback godoc
// @Summary      List feedback
// @Description  Returns every feedback entry in submission order.
// @Tags         feedback
// @Produce      json
// @Success      200  {array}   types.Feedback
// @Failure      500  {object}  types.ErrorResponse
// @Router       /get-feedback [get]
func (h *GuestbookHandler) GetFeedback(c *gin.Context) {
	feedback, err := h.guestbook.ListFeedback(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.FromStoreError(err, "Error retrieving feedback"))
		return
	}
	c.JSON(http.StatusOK, feedback)
}
