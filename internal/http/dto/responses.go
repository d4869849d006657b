package dto

import (
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/queue"
)

type DownloadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ItemID  string `json:"item_id"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	Cancelled *int   `json:"cancelled,omitempty"`
	Removed   *int   `json:"removed,omitempty"`
}

func OK() StatusResponse {
	return StatusResponse{Status: "ok"}
}

func Cancelled(n int) StatusResponse {
	return StatusResponse{Status: "ok", Cancelled: &n}
}

func Removed(n int) StatusResponse {
	return StatusResponse{Status: "ok", Removed: &n}
}

// ExportResponse carries the failed download report. Data is the plain text form.
type ExportResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    string              `json:"data"`
	Items   []queue.FailedEntry `json:"items"`
}

func NewExportResponse(r queue.FailedReport) ExportResponse {
	items := r.Items
	if items == nil {
		items = []queue.FailedEntry{}
	}
	return ExportResponse{
		Success: true,
		Message: r.Message(),
		Data:    r.Text(),
		Items:   items,
	}
}

type DownloadPathResponse struct {
	Path string `json:"path"`
}

type ErrorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error ErrorPayload `json:"error"`
}

// ValidationErrorResponse lists each invalid field of a rejected request.
func ValidationErrorResponse(err *domain.InvalidRequestError) ErrorResponse {
	return ErrorResponse{Error: ErrorPayload{
		Code:    "invalid_request",
		Message: err.Error(),
		Fields:  err.Fields(),
	}}
}
