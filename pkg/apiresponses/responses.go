// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package apiresponses

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope returned by all endpoints. Error is a short message
// safe to show to a caller; Detail carries the underlying error text when the
// failure happened past validation (delivery or internal errors).
type Response struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// RespondOK sends 200 {"ok":true}.
func RespondOK(c *gin.Context) {
	c.JSON(http.StatusOK, Response{OK: true})
}

// RespondBadRequest sends a 400 Bad Request response.
// Use this for incomplete or malformed client input.
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Error: message})
}

// RespondNotFound sends a 404 for unknown routes.
func RespondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{Error: "Not found"})
}

// RespondTooManyRequests sends a 429 response.
func RespondTooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "Too many requests. Please try again later."
	}
	c.JSON(http.StatusTooManyRequests, Response{Error: message})
}

// RespondBadGateway sends a 502 response. Used when the upstream mail
// transport rejected the message after all retries.
func RespondBadGateway(c *gin.Context, message, detail string) {
	if message == "" {
		message = "bad gateway"
	}
	c.JSON(http.StatusBadGateway, Response{Error: message, Detail: detail})
}

// RespondInternalError sends a 500 response and logs the error when a logger is given.
func RespondInternalError(c *gin.Context, message string, err error, log *zap.SugaredLogger) {
	if message == "" {
		message = "Server error"
	}
	resp := Response{Error: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	if log != nil {
		log.Errorw(message, "error", err)
	}
	c.JSON(http.StatusInternalServerError, resp)
}
