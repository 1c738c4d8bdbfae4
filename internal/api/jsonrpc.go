package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MethodHandler is a function that handles a JSON-RPC method
type MethodHandler func(ctx *gin.Context, params json.RawMessage) (interface{}, error)

// JSONRPCHandler handles JSON-RPC requests
type JSONRPCHandler struct {
	methods map[string]MethodHandler
	logger  *zap.Logger
}

// NewJSONRPCHandler creates a new JSON-RPC handler
func NewJSONRPCHandler() *JSONRPCHandler {
	return &JSONRPCHandler{
		methods: make(map[string]MethodHandler),
		logger:  logging.WithComponent("jsonrpc"),
	}
}

// RegisterMethod registers a method handler
func (h *JSONRPCHandler) RegisterMethod(method string, handler MethodHandler) {
	h.methods[method] = handler
}

// Methods returns the registered method names
func (h *JSONRPCHandler) Methods() []string {
	out := make([]string, 0, len(h.methods))
	for m := range h.methods {
		out = append(out, m)
	}
	return out
}

// Handle handles a JSON-RPC request
func (h *JSONRPCHandler) Handle(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "jsonrpc.handle")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, nil, ErrParseError, "Parse error", err)
		return
	}

	if req.JSONRPC != "2.0" {
		h.sendError(c, req.ID, ErrInvalidRequest, "Invalid Request", nil)
		return
	}

	handler, ok := h.methods[req.Method]
	if !ok {
		h.sendError(c, req.ID, ErrMethodNotFound, "Method not found", nil)
		return
	}
	span.SetAttributes(attribute.String("rpc.method", req.Method))

	result, err := handler(c, req.Params)
	if err != nil {
		code, msg := errorCode(err)
		telemetry.EndSpan(span, err)
		h.sendError(c, req.ID, code, msg, err)
		return
	}

	h.sendResponse(c, req.ID, result)
}

// sendResponse sends a successful JSON-RPC response
func (h *JSONRPCHandler) sendResponse(c *gin.Context, id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	c.JSON(http.StatusOK, resp)
}

// sendError sends an error JSON-RPC response. The cause is logged, never returned.
func (h *JSONRPCHandler) sendError(c *gin.Context, id interface{}, code int, message string, cause error) {
	if cause != nil {
		log := logging.FromContext(c.Request.Context(), h.logger)
		fields := []zap.Field{zap.Int("code", code), zap.String("message", message), zap.Error(cause)}
		if code == ErrInternalError {
			log.Error("JSON-RPC error", fields...)
		} else {
			log.Info("JSON-RPC error", fields...)
		}
	}

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
	c.JSON(http.StatusOK, resp)
}
