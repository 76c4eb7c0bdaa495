package rest

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/office_hours/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response единый формат ответа API
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const codeOK = "OK"

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: codeOK, Message: "success", Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: codeOK, Message: "success", Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

// errorMapping порядок важен: ErrAlreadyCancelled оборачивает ErrAlreadyTerminal
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{service.ErrSlotInPast, http.StatusConflict, "SLOT_IN_PAST"},
	{service.ErrSlotAlreadyBooked, http.StatusConflict, "SLOT_ALREADY_BOOKED"},
	{service.ErrConflictingAppointment, http.StatusConflict, "CONFLICTING_APPOINTMENT"},
	{service.ErrAlreadyCancelled, http.StatusConflict, "ALREADY_CANCELLED"},
	{service.ErrAlreadyTerminal, http.StatusConflict, "ALREADY_TERMINAL"},
	{service.ErrSlotInUse, http.StatusConflict, "SLOT_IN_USE"},
	{service.ErrSlotExists, http.StatusConflict, "SLOT_EXISTS"},
	{service.ErrSlotNotBooked, http.StatusConflict, "SLOT_NOT_BOOKED"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{service.ErrInvalidMeetingType, http.StatusBadRequest, "INVALID_MEETING_TYPE"},
	{service.ErrMeetingTypeMismatch, http.StatusBadRequest, "MEETING_TYPE_MISMATCH"},
	{service.ErrInvalidTimeRange, http.StatusBadRequest, "INVALID_TIME_RANGE"},
}

// handleError переводит ошибку сервиса в HTTP ответ
func (h *Handler) handleError(c *gin.Context, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			fail(c, m.status, m.code, err.Error())
			return
		}
	}

	h.logger.Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
	)
	fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
