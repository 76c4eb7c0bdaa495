package rest

import (
	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter собирает gin engine со всеми маршрутами API
func NewRouter(h *Handler, jwtSecret []byte, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger(logger.Named("http")))

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.Use(Identity(jwtSecret))

	staff := RoleAuth(model.RoleInstructor, model.RoleAdmin)
	students := RoleAuth(model.RoleStudent)

	appointments := v1.Group("/appointments")
	{
		appointments.POST("", students, h.BookSlot)
		appointments.GET("/me", h.MyAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/complete", staff, h.CompleteAppointment)
	}

	slots := v1.Group("/slots")
	{
		slots.GET("", h.ListSlots)
		slots.GET("/available", h.ListAvailableSlots)
		slots.GET("/:id", h.GetSlot)
		slots.POST("", staff, h.CreateSlot)
		slots.PUT("/:id", staff, h.UpdateSlot)
		slots.DELETE("/:id", staff, h.DeleteSlot)

		slots.POST("/:id/waitlist", students, h.JoinWaitlist)
		slots.DELETE("/:id/waitlist", students, h.LeaveWaitlist)
		slots.GET("/:id/waitlist", staff, h.SlotWaitlist)
	}

	recurring := v1.Group("/recurring-schedules", staff)
	{
		recurring.POST("", h.CreateRecurringSchedule)
		recurring.DELETE("/:group_id", h.DeactivateRecurringGroup)
	}

	v1.GET("/notifications", h.Notifications)
	v1.POST("/notifications/:id/read", h.MarkNotificationRead)

	admin := v1.Group("/admin", RoleAuth(model.RoleAdmin))
	admin.POST("/reminders/sweep", h.RunReminderSweep)

	return r
}
