package mcptools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"travel-agent/internal/usecase"
)

type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ToolError) ToResult() *mcp.CallToolResult {
	data, _ := json.Marshal(e)
	return mcp.NewToolResultError(string(data))
}

func ValidationError(msg string) *mcp.CallToolResult {
	return ToolError{Code: string(usecase.ErrorInvalidInput), Message: msg}.ToResult()
}

func InternalError(err error) *mcp.CallToolResult {
	return ToolError{Code: string(usecase.ErrorInternal), Message: err.Error()}.ToResult()
}

// FromError keeps the use case's error code and caller-facing message.
func FromError(err error) *mcp.CallToolResult {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		return ToolError{Code: string(ucErr.Code), Message: ucErr.Message()}.ToResult()
	}
	return InternalError(err)
}
