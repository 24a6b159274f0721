package api

import (
	"github.com/starford/taglog/internal/models"
	"github.com/starford/taglog/internal/tagservice"
)

// FileTags is the last known tag set of a file (aliased from the domain layer).
type FileTags = models.FileTags

// TagCount is a tag with its file count (aliased from the domain layer).
type TagCount = models.TagCount

// HistoryItem is one event-log record (aliased from the domain layer).
type HistoryItem = tagservice.HistoryItem

// FileListResponse wraps file listings.
type FileListResponse struct {
	Files []FileTags `json:"files" validate:"required"`
	Total int        `json:"total" example:"42" validate:"required"`
}

// TagListResponse wraps tag counts.
type TagListResponse struct {
	Tags []TagCount `json:"tags" validate:"required"`
}

// HistoryResponse wraps the records of one file, newest first.
type HistoryResponse struct {
	File    string        `json:"file" example:"16-10-2026.md" validate:"required"`
	Records []HistoryItem `json:"records" validate:"required"`
}
