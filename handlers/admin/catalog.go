package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// CatalogHandler manages coupons and live sessions
type CatalogHandler struct {
	coupons     *services.CouponService
	enrollments *services.EnrollmentService
	validator   *validation.Validator
}

// NewCatalogHandler creates the admin catalog handler
func NewCatalogHandler(coupons *services.CouponService, enrollments *services.EnrollmentService) *CatalogHandler {
	return &CatalogHandler{coupons: coupons, enrollments: enrollments, validator: validation.NewValidator()}
}

// ListCoupons handles GET /admin/coupons
func (h *CatalogHandler) ListCoupons(c *fiber.Ctx) error {
	page, limit := handlers.Page(c, 20)

	coupons, total, err := h.coupons.List(c.UserContext(), page, limit)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Paginated(c, coupons, response.CalculatePagination(page, limit, total))
}

// CreateCoupon handles POST /admin/coupons
func (h *CatalogHandler) CreateCoupon(c *fiber.Ctx) error {
	var req services.CouponInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	coupon, err := h.coupons.Create(c.UserContext(), req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, coupon)
}

// UpdateCoupon handles PUT /admin/coupons/:id
func (h *CatalogHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.CouponInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	coupon, err := h.coupons.Update(c.UserContext(), id, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, coupon)
}

// DeactivateCoupon handles DELETE /admin/coupons/:id. Coupons are kept for
// the orders that used them.
func (h *CatalogHandler) DeactivateCoupon(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.coupons.Deactivate(c.UserContext(), id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Coupon deactivated", nil)
}

// ListLiveSessions handles GET /admin/live-sessions
func (h *CatalogHandler) ListLiveSessions(c *fiber.Ctx) error {
	from := time.Now().UTC().Add(-24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.BadRequest(c, "from must be an RFC 3339 timestamp")
		}
		from = parsed
	}

	sessions, err := h.enrollments.ListLiveSessions(c.UserContext(), from)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, sessions)
}

// CreateLiveSession handles POST /admin/live-sessions
func (h *CatalogHandler) CreateLiveSession(c *fiber.Ctx) error {
	admin, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	var req services.LiveSessionInput
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	session, err := h.enrollments.CreateLiveSession(c.UserContext(), admin, req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Created(c, session)
}

// DeleteLiveSession handles DELETE /admin/live-sessions/:id
func (h *CatalogHandler) DeleteLiveSession(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.enrollments.DeleteLiveSession(c.UserContext(), id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Live session cancelled", nil)
}
