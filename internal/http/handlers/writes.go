package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servicer-desk/backend/internal/service"
)

type TaskStatusRequest struct {
	Status              string  `json:"status" validate:"required"`
	CustomStatus        string  `json:"custom_status" validate:"required_if=Status Custom..."`
	Notes               *string `json:"notes"`
	Communicated        bool    `json:"communicated"`
	CommunicationMethod string  `json:"communication_method" validate:"omitempty,oneof=Email WhatsApp SMS Phone In-person Other"`
	NoCommReason        string  `json:"no_comm_reason"`
	UpdatedBy           string  `json:"updated_by" validate:"omitempty,uuid"`
}

// @Summary Change task status
// @Description Applies the status lifecycle and appends an audit row for the daily report
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param body body TaskStatusRequest true "New status"
// @Success 200 {object} models.Task
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/tasks/{id}/status [patch]
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	var req TaskStatusRequest
	if !h.bind(c, &req) {
		return
	}
	task, err := h.Mutations.UpdateTaskStatus(c.Request.Context(), service.StatusChange{
		TaskID:              c.Param("id"),
		Status:              req.Status,
		CustomStatus:        req.CustomStatus,
		Notes:               req.Notes,
		Communicated:        req.Communicated,
		CommunicationMethod: req.CommunicationMethod,
		NoCommReason:        req.NoCommReason,
		UpdatedBy:           req.UpdatedBy,
	})
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type ToggleCompleteRequest struct {
	UpdatedBy string `json:"updated_by" validate:"omitempty,uuid"`
}

// @Summary Toggle task completion
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Router /api/tasks/{id}/toggle-complete [post]
func (h *Handler) ToggleTaskComplete(c *gin.Context) {
	var req ToggleCompleteRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}
	task, err := h.Mutations.ToggleTaskComplete(c.Request.Context(), c.Param("id"), req.UpdatedBy)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type NotesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}

// @Summary Edit task notes
// @Description Debounced per task. A newer edit supersedes a pending one.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param body body NotesRequest true "Notes"
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/tasks/{id}/notes [patch]
func (h *Handler) UpdateTaskNotes(c *gin.Context) {
	var req NotesRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Mutations.UpdateTaskNotes(c.Request.Context(), c.Param("id"), req.Notes); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type CompletedAtRequest struct {
	CompletedAt time.Time `json:"completed_at" validate:"required"`
}

// @Summary Correct completion date
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param body body CompletedAtRequest true "Completion time"
// @Success 200 {object} models.Task
// @Router /api/tasks/{id}/completed-at [patch]
func (h *Handler) UpdateTaskCompletedAt(c *gin.Context) {
	var req CompletedAtRequest
	if !h.bind(c, &req) {
		return
	}
	task, err := h.Mutations.UpdateTaskCompletedDate(c.Request.Context(), c.Param("id"), req.CompletedAt)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type LastUpdatedRequest struct {
	LastUpdated time.Time `json:"last_updated" validate:"required"`
}

// @Summary Set last updated
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param body body LastUpdatedRequest true "Timestamp"
// @Success 200 {object} models.Task
// @Router /api/tasks/{id}/last-updated [patch]
func (h *Handler) TouchTask(c *gin.Context) {
	var req LastUpdatedRequest
	if !h.bind(c, &req) {
		return
	}
	task, err := h.Mutations.TouchTaskLastUpdated(c.Request.Context(), c.Param("id"), req.LastUpdated)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type MoneySavedRequest struct {
	MoneySaved *float64 `json:"money_saved" validate:"required,gte=0"`
}

// @Summary Edit money saved
// @Description For a bundle member the amount becomes the bundle total
// @Tags sub-categories
// @Accept json
// @Produce json
// @Param id path string true "Sub-category ID"
// @Param body body MoneySavedRequest true "Amount"
// @Success 200 {object} map[string]any
// @Router /api/sub-categories/{id}/money-saved [patch]
func (h *Handler) UpdateMoneySaved(c *gin.Context) {
	var req MoneySavedRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Mutations.UpdateSubCategoryMoneySaved(c.Request.Context(), c.Param("id"), *req.MoneySaved); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SubCategoryStatusRequest struct {
	OverallStatus string `json:"overall_status" validate:"required"`
}

// @Summary Set service status
// @Tags sub-categories
// @Accept json
// @Produce json
// @Param id path string true "Sub-category ID"
// @Param body body SubCategoryStatusRequest true "Overall status"
// @Success 200 {object} models.SubCategory
// @Router /api/sub-categories/{id}/status [patch]
func (h *Handler) UpdateSubCategoryStatus(c *gin.Context) {
	var req SubCategoryStatusRequest
	if !h.bind(c, &req) {
		return
	}
	sub, err := h.Mutations.UpdateSubCategoryStatus(c.Request.Context(), c.Param("id"), req.OverallStatus)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// @Summary Delete a service
// @Description Removes the sub-category and its tasks
// @Tags sub-categories
// @Produce json
// @Param id path string true "Sub-category ID"
// @Success 200 {object} map[string]any
// @Router /api/sub-categories/{id} [delete]
func (h *Handler) DeleteSubCategory(c *gin.Context) {
	if err := h.Mutations.DeleteSubCategory(c.Request.Context(), c.Param("id")); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type CreateSubCategoryRequest struct {
	Category string   `json:"category" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Tasks    []string `json:"tasks" validate:"omitempty,dive,required"`
}

// @Summary Add a service to a customer
// @Description Creates the category if needed, the sub-category and its task checklist. Defaults to the predefined checklist.
// @Tags sub-categories
// @Accept json
// @Produce json
// @Param phone path string true "Customer phone"
// @Param body body CreateSubCategoryRequest true "Service"
// @Success 201 {object} models.SubCategory
// @Failure 409 {object} map[string]any
// @Router /api/customers/{phone}/sub-categories [post]
func (h *Handler) CreateSubCategory(c *gin.Context) {
	var req CreateSubCategoryRequest
	if !h.bind(c, &req) {
		return
	}
	sub, err := h.Mutations.CreateSubCategory(c.Request.Context(), service.NewSubCategory{
		CustomerPhone: c.Param("phone"),
		Category:      req.Category,
		Name:          req.Name,
		Tasks:         req.Tasks,
	})
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

type BundleSavingsRequest struct {
	Total *float64 `json:"total" validate:"required,gte=0"`
}

// @Summary Set bundle savings
// @Tags sub-categories
// @Accept json
// @Produce json
// @Param group path string true "Bundle group"
// @Param body body BundleSavingsRequest true "Bundle total"
// @Success 200 {object} map[string]any
// @Router /api/bundles/{group}/savings [put]
func (h *Handler) SetBundleSavings(c *gin.Context) {
	var req BundleSavingsRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Mutations.SetBundleSavings(c.Request.Context(), c.Param("group"), *req.Total); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Edit customer notes
// @Tags customers
// @Accept json
// @Produce json
// @Param phone path string true "Customer phone"
// @Param body body NotesRequest true "Notes"
// @Success 200 {object} map[string]any
// @Router /api/customers/{phone}/notes [patch]
func (h *Handler) UpdateCustomerNotes(c *gin.Context) {
	var req NotesRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Mutations.UpdateCustomerNotes(c.Request.Context(), c.Param("phone"), req.Notes); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type DescriptionRequest struct {
	Description string `json:"description" validate:"max=10000"`
}

// @Summary Edit customer description
// @Tags customers
// @Accept json
// @Produce json
// @Param phone path string true "Customer phone"
// @Param body body DescriptionRequest true "Description"
// @Success 200 {object} map[string]any
// @Router /api/customers/{phone}/description [patch]
func (h *Handler) UpdateCustomerDescription(c *gin.Context) {
	var req DescriptionRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Mutations.UpdateCustomerDescription(c.Request.Context(), c.Param("phone"), req.Description); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type FlagRequest struct {
	Flag string `json:"flag" validate:"required,oneof=Difficult Slow VIP Priority New"`
}

// @Summary Toggle a customer flag
// @Tags customers
// @Accept json
// @Produce json
// @Param phone path string true "Customer phone"
// @Param body body FlagRequest true "Flag"
// @Success 200 {object} models.Customer
// @Router /api/customers/{phone}/flags [post]
func (h *Handler) ToggleCustomerFlag(c *gin.Context) {
	var req FlagRequest
	if !h.bind(c, &req) {
		return
	}
	customer, err := h.Mutations.ToggleCustomerFlag(c.Request.Context(), c.Param("phone"), req.Flag)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

type CommunicationRequest struct {
	Method string `json:"method" validate:"required,oneof=Email WhatsApp SMS Phone In-person Other"`
}

// @Summary Log a customer contact
// @Description Stamps the customer's last contact and records it in the audit feed
// @Tags customers
// @Accept json
// @Produce json
// @Param phone path string true "Customer phone"
// @Param body body CommunicationRequest true "Contact method"
// @Success 200 {object} models.Customer
// @Router /api/customers/{phone}/communications [post]
func (h *Handler) LogCommunication(c *gin.Context) {
	var req CommunicationRequest
	if !h.bind(c, &req) {
		return
	}
	customer, err := h.Mutations.LogCommunication(c.Request.Context(), c.Param("phone"), req.Method)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
