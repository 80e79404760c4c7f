package admin

import (
	"mime"
	"path"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/services/storage"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// proofURLTTL bounds how long a presigned proof link stays valid
const proofURLTTL = 5 * time.Minute

// PaymentsHandler serves the admin side of orders and payments
type PaymentsHandler struct {
	orders      *services.OrderService
	fulfillment *services.FulfillmentService
	coupons     *services.CouponService
	configs     *services.PaymentConfigService
	storage     storage.Storage
	validator   *validation.Validator
}

// NewPaymentsHandler creates the admin payments handler
func NewPaymentsHandler(
	orders *services.OrderService,
	fulfillment *services.FulfillmentService,
	coupons *services.CouponService,
	configs *services.PaymentConfigService,
	proofs storage.Storage,
) *PaymentsHandler {
	return &PaymentsHandler{
		orders:      orders,
		fulfillment: fulfillment,
		coupons:     coupons,
		configs:     configs,
		storage:     proofs,
		validator:   validation.NewValidator(),
	}
}

// ApproveRequest carries optional reviewer notes
type ApproveRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// RejectRequest requires a reason the learner will see
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// BatchApproveRequest approves several transactions
type BatchApproveRequest struct {
	TransactionIDs []uint `json:"transaction_ids" validate:"required,min=1,max=100,dive,required"`
	Notes          string `json:"notes" validate:"max=1000"`
}

// BatchRejectRequest rejects several transactions with one reason
type BatchRejectRequest struct {
	TransactionIDs []uint `json:"transaction_ids" validate:"required,min=1,max=100,dive,required"`
	Reason         string `json:"reason" validate:"required,min=3,max=1000"`
}

// ListTransactions handles GET /admin/transactions?status=&method=
func (h *PaymentsHandler) ListTransactions(c *fiber.Ctx) error {
	page, limit := handlers.Page(c, 20)

	txns, total, err := h.orders.ListTransactions(c.UserContext(), services.TransactionFilter{
		Status: model.TransactionStatus(c.Query("status")),
		Method: model.PaymentMethod(c.Query("method")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Paginated(c, txns, response.CalculatePagination(page, limit, total))
}

// GetTransaction handles GET /admin/transactions/:id
func (h *PaymentsHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	txn, err := h.orders.GetTransaction(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, txn)
}

// TransactionProof handles GET /admin/transactions/:id/proof. Object storage
// answers with a short lived redirect; local storage streams the file.
func (h *PaymentsHandler) TransactionProof(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	ctx := c.UserContext()
	txn, err := h.orders.GetTransaction(ctx, id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	if txn.ProofURL == "" {
		return response.NotFound(c, "No payment proof was uploaded")
	}

	url, err := h.storage.SignedURL(ctx, txn.ProofURL, proofURLTTL)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	if url != "" {
		return c.Redirect(url, fiber.StatusTemporaryRedirect)
	}

	content, err := h.storage.Get(ctx, txn.ProofURL)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	contentType := mime.TypeByExtension(path.Ext(txn.ProofURL))
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(content)
}

// Approve handles POST /admin/transactions/:id/approve
func (h *PaymentsHandler) Approve(c *fiber.Ctx) error {
	admin, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req ApproveRequest
	if len(c.Body()) > 0 {
		if err := handlers.Bind(c, h.validator, &req); err != nil {
			return handlers.RespondError(c, err)
		}
	}

	result, err := h.fulfillment.Approve(c.UserContext(), admin.ID, id, req.Notes)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, result)
}

// Reject handles POST /admin/transactions/:id/reject
func (h *PaymentsHandler) Reject(c *fiber.Ctx) error {
	admin, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req RejectRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	result, err := h.fulfillment.Reject(c.UserContext(), admin.ID, id, req.Reason)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, result)
}

// BatchApprove handles POST /admin/transactions/batch-approve
func (h *PaymentsHandler) BatchApprove(c *fiber.Ctx) error {
	admin, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req BatchApproveRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	result := h.fulfillment.BatchApprove(c.UserContext(), admin.ID, req.TransactionIDs, req.Notes)
	return response.Success(c, result)
}

// BatchReject handles POST /admin/transactions/batch-reject
func (h *PaymentsHandler) BatchReject(c *fiber.Ctx) error {
	admin, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req BatchRejectRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	result, err := h.fulfillment.BatchReject(c.UserContext(), admin.ID, req.TransactionIDs, req.Reason)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, result)
}

// RefundOrder handles POST /admin/orders/:id/refund
func (h *PaymentsHandler) RefundOrder(c *fiber.Ctx) error {
	admin, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	order, err := h.fulfillment.Refund(c.UserContext(), admin.ID, id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Order marked as refunded", order)
}

// GetPaymentConfig handles GET /admin/payment-config
func (h *PaymentsHandler) GetPaymentConfig(c *fiber.Ctx) error {
	cfg, err := h.configs.Get(c.UserContext())
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, cfg)
}

// UpdatePaymentConfig handles PUT /admin/payment-config
func (h *PaymentsHandler) UpdatePaymentConfig(c *fiber.Ctx) error {
	admin, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.PaymentConfigInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	cfg, err := h.configs.Update(c.UserContext(), admin.ID, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Payment settings updated", cfg)
}
