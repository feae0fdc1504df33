package httputil

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// APIResponse is the envelope for JSON API responses
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSONResponse writes an APIResponse envelope
func JSONResponse(ctx *fasthttp.RequestCtx, success bool, message string, data any, statusCode int) {
	body, err := json.Marshal(APIResponse{Success: success, Message: message, Data: data})
	if err != nil {
		TextError(ctx, "response encoding failed: "+err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(statusCode)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(body)
}

// JSONError is a convenience wrapper for error responses
func JSONError(ctx *fasthttp.RequestCtx, message string, statusCode int) {
	JSONResponse(ctx, false, message, nil, statusCode)
}

// JSONData is a convenience wrapper for success responses with data
func JSONData(ctx *fasthttp.RequestCtx, data any, statusCode int) {
	JSONResponse(ctx, true, "", data, statusCode)
}

// TextError writes a plain text error body
func TextError(ctx *fasthttp.RequestCtx, message string, statusCode int) {
	ctx.ResetBody()
	ctx.SetStatusCode(statusCode)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(message)
}
