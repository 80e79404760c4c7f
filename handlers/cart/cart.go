package cart

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// CartHandler exposes the shopping cart of the current user
type CartHandler struct {
	carts     *services.CartService
	validator *validation.Validator
}

// NewCartHandler creates a cart handler
func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts, validator: validation.NewValidator()}
}

// AddItemRequest adds a course to the cart
type AddItemRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// ApplyCouponRequest attaches a coupon to the cart
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,coupon"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	view, err := h.carts.View(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, view)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req AddItemRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	item, err := h.carts.Add(c.UserContext(), user.ID, req.CourseID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, item)
}

// RemoveItem handles DELETE /api/v1/cart/items/:id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	itemID, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.carts.Remove(c.UserContext(), user.ID, itemID); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Item removed from cart", nil)
}

// BuyNow handles POST /api/v1/cart/buy-now/:course_id. The cart is replaced
// by the single course.
func (h *CartHandler) BuyNow(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	courseID, err := handlers.ParamID(c, "course_id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	view, err := h.carts.BuyNow(c.UserContext(), user.ID, courseID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, view)
}

// ApplyCoupon handles POST /api/v1/cart/coupon
func (h *CartHandler) ApplyCoupon(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req ApplyCouponRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	view, err := h.carts.ApplyCoupon(c.UserContext(), user.ID, req.Code)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Coupon applied", view)
}

// RemoveCoupon handles DELETE /api/v1/cart/coupon
func (h *CartHandler) RemoveCoupon(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.carts.RemoveCoupon(c.UserContext(), user.ID); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Coupon removed", nil)
}
