package api

import (
	"github.com/gin-gonic/gin"
)

// SampleRequest is the body of POST /api/sample
type SampleRequest struct {
	Texts       []string `json:"texts"`
	BudgetChars *int     `json:"budgetChars"`
	Detailed    bool     `json:"detailed"`
}

// SampleResponse is the compact sampling result
type SampleResponse struct {
	Texts      []string `json:"texts"`
	Count      int      `json:"count"`
	TotalChars int      `json:"totalChars"`
}

// Sample handles POST /api/sample
func (h *Handlers) Sample(c *gin.Context) {
	var req SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	var details []ErrorDetail
	if req.Texts == nil {
		details = append(details, ErrorDetail{Field: "texts", Message: "texts is required", Code: "required"})
	}
	if req.BudgetChars != nil && *req.BudgetChars <= 0 {
		details = append(details, ErrorDetail{Field: "budgetChars", Message: "budgetChars must be positive", Code: "range"})
	}
	if len(details) > 0 {
		RespondValidationError(c, "Invalid sample request", details)
		return
	}

	s := h.sampler
	if req.BudgetChars != nil {
		s = s.WithBudget(*req.BudgetChars)
	}

	res := s.SampleDetailed(req.Texts)
	if req.Detailed {
		RespondData(c, res)
		return
	}

	texts := res.Texts()
	RespondData(c, SampleResponse{Texts: texts, Count: len(texts), TotalChars: res.TotalChars})
}
