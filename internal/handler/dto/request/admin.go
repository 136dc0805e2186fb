package request

// SetCRMStatusRequest drives the mock CRM status override.
type SetCRMStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
