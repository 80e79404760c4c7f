package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/middleware"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"gorm.io/gorm"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Role    string `query:"role"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// UpdateUserRoleRequest promotes or demotes a user
type UpdateUserRoleRequest struct {
	Role string `json:"role"`
}

var sortableUserColumns = map[string]bool{"created_at": true, "name": true, "email": true}

// ListUsers retrieves all users with pagination and filters
// GET /admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	// Default pagination
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	if !sortableUserColumns[req.Sort] {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" && req.SortDir != "desc" {
		req.SortDir = "desc"
	}

	query := store.GetDB().WithContext(c.UserContext()).Model(&model.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Order(req.Sort + " " + req.SortDir).Find(&users).Error; err != nil {
		return err
	}

	return response.Paginated(c, users, response.CalculatePagination(req.Page, req.Limit, total))
}

// GetUser retrieves a user with their purchase history
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	db := store.GetDB().WithContext(c.UserContext())

	var user model.User
	if err := db.Preload("Profile").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return err
	}

	var stats struct {
		Enrollments     int64 `json:"enrollments"`
		CompletedOrders int64 `json:"completed_orders"`
		Certificates    int64 `json:"certificates"`
	}
	db.Model(&model.Enrollment{}).Where("user_id = ?", userID).Count(&stats.Enrollments)
	db.Model(&model.Order{}).Where("user_id = ? AND payment_status = ?", userID, model.PaymentStatusCompleted).Count(&stats.CompletedOrders)
	db.Model(&model.Certificate{}).Where("user_id = ?", userID).Count(&stats.Certificates)

	return response.Success(c, fiber.Map{
		"user":  user,
		"stats": stats,
	})
}

// UpdateUserRole changes a user's role
// PUT /admin/users/:id/role
func UpdateUserRole(c *fiber.Ctx, store database.Storage) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	switch req.Role {
	case model.RoleStudent, model.RoleInstructor, model.RoleAdmin:
	default:
		return response.ValidationFailed(c, map[string]string{"role": "role must be one of: student instructor admin"})
	}

	if current, ok := middleware.GetUserID(c); ok && current == uint(userID) && req.Role != model.RoleAdmin {
		return response.BadRequest(c, "Admins cannot demote themselves")
	}

	db := store.GetDB().WithContext(c.UserContext())
	res := db.Model(&model.User{}).Where("id = ?", userID).Update("role", req.Role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, "User not found")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		return err
	}
	return response.SuccessWithMessage(c, "User role updated", user)
}
