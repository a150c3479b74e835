package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/service"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

// PaymentHandler serves the paying user.
type PaymentHandler struct {
	resolver *service.Resolver
	logger   *service.DisplayLogger
	ledger   *service.Ledger
	now      Clock
}

func NewPaymentHandler(resolver *service.Resolver, logger *service.DisplayLogger, ledger *service.Ledger, clock Clock) *PaymentHandler {
	return &PaymentHandler{
		resolver: resolver,
		logger:   logger,
		ledger:   ledger,
		now:      defaultClock(clock),
	}
}

// GetActivePayment resolves the destination for the caller and logs the display.
func (h *PaymentHandler) GetActivePayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	active, err := h.resolver.Resolve(c.Request.Context(), userID, h.now())
	if err != nil {
		writeError(c, err, "Failed to resolve active payment")
		return
	}

	if active != nil {
		if _, err := h.logger.LogDisplay(c.Request.Context(), active, userID); err != nil {
			// the payer still gets the destination
			telemetry.Logger.Error("Error logging payment display",
				zap.String("user_id", userID),
				zap.String("set_id", active.SetID),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusOK, gin.H{"activePayment": active})
}

type submitTransactionRequest struct {
	TransactionID string       `json:"transactionId" binding:"required"`
	ProofImage    string       `json:"proofImage" binding:"required"`
	ProofFileName string       `json:"proofFileName"`
	AmountInCents float64      `json:"amountInCents"`
	PaymentSetID  string       `json:"paymentSetId"`
	PaymentScope  models.Scope `json:"paymentScope"`
}

func (h *PaymentHandler) SubmitTransaction(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req submitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tx, err := h.ledger.Submit(c.Request.Context(), service.SubmitInput{
		UserID:        userID,
		TransactionID: req.TransactionID,
		ProofImage:    req.ProofImage,
		ProofFileName: req.ProofFileName,
		AmountInCents: req.AmountInCents,
		PaymentSetID:  req.PaymentSetID,
		PaymentScope:  req.PaymentScope,
	})
	if err != nil {
		writeError(c, err, "Failed to submit transaction")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Transaction submitted successfully.",
		"transaction": tx,
	})
}

func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	txs, err := h.ledger.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "Failed to fetch transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
