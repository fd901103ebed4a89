package api

import (
	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/noteservice"
	"github.com/starford/vaultid/internal/settings"
)

// BulkRequest is the request body for POST /api/bulk. An empty scheme means
// the active one.
type BulkRequest struct {
	Scheme    string           `json:"scheme" example:"uuid"`
	Operation models.Operation `json:"operation" example:"add" validate:"required"`
}

// SchemeListResponse wraps scheme listings.
type SchemeListResponse struct {
	Schemes []noteservice.SchemeInfo `json:"schemes" validate:"required"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse = noteservice.StatsReport

// AssignResponse is the body of POST /api/notes/{path}/id.
type AssignResponse = noteservice.AssignResult

// BulkResponse is the body of POST /api/bulk.
type BulkResponse = models.BulkResult

// SettingsDTO is the body of GET and PUT /api/settings.
type SettingsDTO = settings.Settings
