package checkout

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// maxProofBytes caps the multipart proof read into memory. The payment
// service applies the finer per type limits.
const maxProofBytes = 10 << 20

// CheckoutHandler turns the cart into orders and records payments
type CheckoutHandler struct {
	payments  *services.PaymentService
	orders    *services.OrderService
	invoices  *services.InvoiceService
	configs   *services.PaymentConfigService
	validator *validation.Validator
}

// NewCheckoutHandler creates a checkout handler
func NewCheckoutHandler(payments *services.PaymentService, orders *services.OrderService, invoices *services.InvoiceService, configs *services.PaymentConfigService) *CheckoutHandler {
	return &CheckoutHandler{
		payments:  payments,
		orders:    orders,
		invoices:  invoices,
		configs:   configs,
		validator: validation.NewValidator(),
	}
}

// PaymentConfig handles GET /api/v1/payments/config
func (h *CheckoutHandler) PaymentConfig(c *fiber.Ctx) error {
	cfg, err := h.configs.Public(c.UserContext())
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, cfg)
}

// Card handles POST /api/v1/checkout/card. The simulated card payment
// completes the order immediately.
func (h *CheckoutHandler) Card(c *fiber.Ctx) error {
	return h.checkout(c, model.PaymentMethodCard, services.CheckoutRequest{})
}

// Razorpay handles POST /api/v1/checkout/razorpay by opening a gateway order
func (h *CheckoutHandler) Razorpay(c *fiber.Ctx) error {
	return h.checkout(c, model.PaymentMethodRazorpay, services.CheckoutRequest{})
}

// UPI handles POST /api/v1/checkout/upi (multipart: transaction_reference,
// optional proof file)
func (h *CheckoutHandler) UPI(c *fiber.Ctx) error {
	req := services.CheckoutRequest{TransactionReference: c.FormValue("transaction_reference")}

	if fileHeader, err := c.FormFile("proof"); err == nil {
		if fileHeader.Size > maxProofBytes {
			return response.ValidationFailed(c, map[string]string{"proof": "Proof file is too large"})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return response.BadRequest(c, "Failed to read proof file")
		}
		defer file.Close()

		content, err := io.ReadAll(io.LimitReader(file, maxProofBytes))
		if err != nil {
			return response.BadRequest(c, "Failed to read proof file")
		}
		req.ProofFilename = fileHeader.Filename
		req.Proof = content
	}

	return h.checkout(c, model.PaymentMethodUPI, req)
}

func (h *CheckoutHandler) checkout(c *fiber.Ctx, method model.PaymentMethod, req services.CheckoutRequest) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	result, err := h.payments.Checkout(c.UserContext(), method, user, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, result)
}

// VerifyRazorpay handles POST /api/v1/checkout/razorpay/verify
func (h *CheckoutHandler) VerifyRazorpay(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.RazorpayVerifyRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	result, err := h.payments.VerifyRazorpay(c.UserContext(), user, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Payment verified", result)
}
