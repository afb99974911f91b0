// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/booking-mailer/pkg/apiresponses"
	"github.com/telekom/booking-mailer/pkg/booking"
	"github.com/telekom/booking-mailer/pkg/system"
)

// BookingHandler runs a booking through the pipeline. *booking.Service implements it.
type BookingHandler interface {
	Handle(ctx context.Context, req booking.Request, log *zap.SugaredLogger) error
}

type BookingController struct {
	log     *zap.SugaredLogger
	handler BookingHandler
	timeout time.Duration
}

// NewBookingController creates the controller. A timeout <= 0 leaves the
// request context without a deadline.
func NewBookingController(log *zap.SugaredLogger, handler BookingHandler, timeout time.Duration) *BookingController {
	return &BookingController{log: log, handler: handler, timeout: timeout}
}

func (bc *BookingController) BasePath() string {
	return "bookings"
}

func (bc *BookingController) Handlers() []gin.HandlerFunc {
	return nil
}

func (bc *BookingController) Register(rg *gin.RouterGroup) error {
	rg.POST("", bc.create)
	return nil
}

func (bc *BookingController) create(c *gin.Context) {
	log := system.GetReqLogger(c, bc.log)

	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		// an unreadable body is validated like an empty one
		log.Debugw("Could not decode booking body", "error", err)
		req = booking.Request{}
	}

	ctx := c.Request.Context()
	if bc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bc.timeout)
		defer cancel()
	}

	respond(c, bc.handler.Handle(ctx, req, log), log)
}

// respond maps pipeline errors to HTTP responses.
func respond(c *gin.Context, err error, log *zap.SugaredLogger) {
	var (
		validation *booking.ValidationError
		rate       *booking.RateLimitError
		delivery   *booking.DeliveryError
	)
	switch {
	case err == nil:
		apiresponses.RespondOK(c)
	case errors.As(err, &validation):
		apiresponses.RespondBadRequest(c, validation.Error())
	case errors.As(err, &rate):
		apiresponses.RespondTooManyRequests(c, rate.Error())
	case errors.As(err, &delivery):
		apiresponses.RespondBadGateway(c, "Email send failed", delivery.Error())
	default:
		apiresponses.RespondInternalError(c, "Server error", err, log)
	}
}
