package checkout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// ListOrders handles GET /api/v1/orders
func (h *CheckoutHandler) ListOrders(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	orders, err := h.orders.OrderHistory(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, orders)
}

// GetOrder handles GET /api/v1/orders/:number
func (h *CheckoutHandler) GetOrder(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	order, err := h.orders.OrderDetail(c.UserContext(), user.ID, c.Params("number"))
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, order)
}

// GetInvoice handles GET /api/v1/orders/:number/invoice
func (h *CheckoutHandler) GetInvoice(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	invoice, err := h.invoices.GetForOrder(c.UserContext(), user.ID, c.Params("number"))
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, invoice)
}
