package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/service"
)

// AdminHandler serves configuration administrators and payment reviewers.
type AdminHandler struct {
	store     *service.ConfigStore
	resolver  *service.Resolver
	logger    *service.DisplayLogger
	templates *service.Templates
	ledger    *service.Ledger
	now       Clock
}

func NewAdminHandler(
	store *service.ConfigStore,
	resolver *service.Resolver,
	logger *service.DisplayLogger,
	templates *service.Templates,
	ledger *service.Ledger,
	clock Clock,
) *AdminHandler {
	return &AdminHandler{
		store:     store,
		resolver:  resolver,
		logger:    logger,
		templates: templates,
		ledger:    ledger,
		now:       defaultClock(clock),
	}
}

type createSetRequest struct {
	Scope           models.Scope       `json:"scope" binding:"required"`
	UserID          string             `json:"userId"`
	QRImage         string             `json:"qrImage"`
	Bank            models.BankDetails `json:"bank"`
	ValidForMinutes int                `json:"validForMinutes"`
	StartsAt        time.Time          `json:"startsAt"`
	IsActive        *bool              `json:"isActive"`
}

type updateSetRequest struct {
	Scope           *models.Scope       `json:"scope"`
	UserID          *string             `json:"userId"`
	QRImage         *string             `json:"qrImage"`
	Bank            *models.BankDetails `json:"bank"`
	ValidForMinutes *int                `json:"validForMinutes"`
	StartsAt        *time.Time          `json:"startsAt"`
	IsActive        *bool               `json:"isActive"`
}

type toggleSetRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// ListSets lists sets of one scope with their status and rotation indicator.
func (h *AdminHandler) ListSets(c *gin.Context) {
	ctx := c.Request.Context()

	var keep service.SetFilter
	switch models.Scope(c.DefaultQuery("scope", string(models.ScopeGlobal))) {
	case models.ScopeGlobal:
		keep = service.GlobalSets()
	case models.ScopeUser:
		userID := strings.TrimSpace(c.Query("userId"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required for user scope"})
			return
		}
		keep = service.UserSets(userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be global or user"})
		return
	}

	views, err := h.resolver.Describe(ctx, keep, h.now())
	if err != nil {
		writeError(c, err, "Failed to fetch payment sets")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sets": views})
}

func (h *AdminHandler) CreateSet(c *gin.Context) {
	var req createSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	set, err := h.store.Create(c.Request.Context(), service.CreateSetInput{
		Scope:           req.Scope,
		UserID:          req.UserID,
		QRImage:         req.QRImage,
		Bank:            req.Bank,
		ValidForMinutes: req.ValidForMinutes,
		StartsAt:        req.StartsAt,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(c, err, "Failed to create payment set")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"set": set})
}

func (h *AdminHandler) UpdateSet(c *gin.Context) {
	var req updateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	set, err := h.store.Update(c.Request.Context(), c.Param("id"), service.SetPatch{
		Scope:           req.Scope,
		UserID:          req.UserID,
		QRImage:         req.QRImage,
		Bank:            req.Bank,
		ValidForMinutes: req.ValidForMinutes,
		StartsAt:        req.StartsAt,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(c, err, "Failed to update payment set")
		return
	}

	c.JSON(http.StatusOK, gin.H{"set": set})
}

func (h *AdminHandler) ToggleSet(c *gin.Context) {
	var req toggleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.store.Toggle(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		writeError(c, err, "Failed to toggle payment set")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) DeleteSet(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete payment set")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) ListDisplayLogs(c *gin.Context) {
	logs, err := h.logger.List(c.Request.Context(), strings.TrimSpace(c.Query("userId")))
	if err != nil {
		writeError(c, err, "Failed to fetch display logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

type templateRequest struct {
	QRImage string             `json:"qrImage"`
	Bank    models.BankDetails `json:"bank"`
}

type templateView struct {
	models.PaymentTemplate
	HasQR   bool `json:"hasQr"`
	HasBank bool `json:"hasBank"`
}

func (h *AdminHandler) ListTemplates(c *gin.Context) {
	tpls, err := h.templates.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch templates")
		return
	}

	views := make([]templateView, 0, len(tpls))
	for _, tpl := range tpls {
		views = append(views, templateView{PaymentTemplate: tpl, HasQR: tpl.HasQR(), HasBank: tpl.HasBank()})
	}
	c.JSON(http.StatusOK, gin.H{"templates": views})
}

func (h *AdminHandler) CreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tpl, err := h.templates.Create(c.Request.Context(), service.CreateTemplateInput{
		QRImage:   req.QRImage,
		Bank:      req.Bank,
		CreatedBy: c.GetHeader(HeaderReviewerID),
	})
	if err != nil {
		writeError(c, err, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"template": tpl})
}

func (h *AdminHandler) ImplementTemplate(c *gin.Context) {
	set, err := h.templates.Implement(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		writeError(c, err, "Failed to implement template")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Template implemented successfully.",
		"set":     set,
	})
}

func (h *AdminHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully."})
}

type transactionStatusRequest struct {
	Status models.TransactionStatus `json:"status" binding:"required"`
}

func (h *AdminHandler) ListTransactions(c *gin.Context) {
	txs, err := h.ledger.ListAll(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, err, "Failed to fetch transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h *AdminHandler) UpdateTransactionStatus(c *gin.Context) {
	var req transactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tx, err := h.ledger.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, c.GetHeader(HeaderReviewerID))
	if err != nil {
		writeError(c, err, "Failed to update transaction status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Transaction status updated.",
		"transaction": tx,
	})
}

func (h *AdminHandler) DeleteTransaction(c *gin.Context) {
	if err := h.ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete transaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully."})
}
