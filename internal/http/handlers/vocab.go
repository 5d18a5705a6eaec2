package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/servicer-desk/backend/internal/models"
)

// VocabulariesResponse carries the fixed option lists the task and customer
// forms pick from.
type VocabulariesResponse struct {
	Statuses             []string            `json:"statuses"`
	SubCategoryStatuses  []string            `json:"sub_category_statuses"`
	Categories           []string            `json:"categories"`
	SubCategories        map[string][]string `json:"sub_categories"`
	PredefinedTasks      map[string][]string `json:"predefined_tasks"`
	CustomerFlags        []string            `json:"customer_flags"`
	CommunicationMethods []string            `json:"communication_methods"`
}

// @Summary Option lists
// @Description Statuses, categories, sub-categories with their checklists, flags and contact methods
// @Tags meta
// @Produce json
// @Success 200 {object} VocabulariesResponse
// @Router /api/vocabularies [get]
func (h *Handler) Vocabularies(c *gin.Context) {
	c.JSON(http.StatusOK, VocabulariesResponse{
		Statuses:             models.PredefinedStatuses,
		SubCategoryStatuses:  models.SubCategoryStatuses,
		Categories:           models.PredefinedCategories,
		SubCategories:        models.SubCategoriesByCategory,
		PredefinedTasks:      models.PredefinedTasks,
		CustomerFlags:        models.CustomerFlags,
		CommunicationMethods: models.CommunicationMethods,
	})
}
