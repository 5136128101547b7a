// Package mcp exposes the search service over the Model Context
// Protocol: tools for searching the archive, autocomplete, and the
// analytics operations.
package mcp

import (
	"errors"
	"fmt"

	archerr "github.com/openarchive/unisearch/internal/errors"
)

// JSON-RPC and server error codes.
const (
	ErrCodeIndexUnavailable = -32001

	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with a JSON-RPC code.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params error.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: message}
}

// MapError converts service errors to MCP errors. Validation failures
// become invalid-params; a missing index gets its own code so clients
// can retry after the first rebuild.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var archiveErr *archerr.ArchiveError
	if errors.As(err, &archiveErr) {
		switch archiveErr.Code {
		case archerr.ErrCodeInvalidQuery, archerr.ErrCodeUnknownSource, archerr.ErrCodeInvalidDateRange:
			return &MCPError{Code: ErrCodeInvalidParams, Message: archiveErr.Message}
		case archerr.ErrCodeIndexUnavailable:
			return &MCPError{Code: ErrCodeIndexUnavailable, Message: archiveErr.Message}
		}
		return &MCPError{Code: ErrCodeInternalError, Message: archiveErr.Message}
	}

	return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
}
