package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/attendance/internal/app/controllers"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/middleware"
)

// Controllers groups every HTTP handler set
type Controllers struct {
	Auth       *controllers.AuthController
	Users      *controllers.UserController
	Catalogue  *controllers.CatalogueController
	Sessions   *controllers.SessionController
	Attendance *controllers.AttendanceController
	Timetable  *controllers.TimetableController
	Syllabi    *controllers.SyllabusController
	Reports    *controllers.ReportController
}

// SetupRouter configures all application routes under /api/v1.
// redeemLimit runs after authentication on the redeem endpoint.
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware, redeemLimit gin.HandlerFunc) {
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"status": "ok"}, ""))
	})

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// Registration needs the batch list
	v1.GET("/batches", c.Catalogue.ListBatches)
	v1.GET("/batches/:id", c.Catalogue.GetBatch)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	admin := authMiddleware.RoleRequired(models.RoleAdmin)
	staff := authMiddleware.RoleRequired(models.RoleAdmin, models.RoleTeacher)
	student := authMiddleware.RoleRequired(models.RoleStudent)

	authenticated.GET("/auth/me", c.Auth.Me)
	authenticated.PUT("/auth/me", c.Auth.UpdateMe)
	authenticated.GET("/dashboard", c.Reports.Dashboard)

	users := authenticated.Group("/users", admin)
	{
		users.POST("", c.Users.CreateUser)
		users.GET("", c.Users.ListUsers)
		users.GET("/:id", c.Users.GetUser)
		users.PUT("/:id", c.Users.UpdateUser)
		users.DELETE("/:id", c.Users.DeleteUser)
		users.PUT("/:id/subjects", c.Users.AssignSubjects)
	}
	authenticated.GET("/teachers", admin, c.Users.ListTeachers)
	authenticated.GET("/students", staff, c.Users.ListStudents)

	batches := authenticated.Group("/batches", admin)
	{
		batches.POST("", c.Catalogue.CreateBatch)
		batches.PUT("/:id", c.Catalogue.UpdateBatch)
		batches.DELETE("/:id", c.Catalogue.DeleteBatch)
	}

	subjects := authenticated.Group("/subjects")
	{
		subjects.GET("", staff, c.Catalogue.ListSubjects)
		subjects.GET("/:id", staff, c.Catalogue.GetSubject)
		subjects.POST("", admin, c.Catalogue.CreateSubject)
		subjects.PUT("/:id", admin, c.Catalogue.UpdateSubject)
		subjects.DELETE("/:id", admin, c.Catalogue.DeleteSubject)
	}

	sessions := authenticated.Group("/sessions", staff)
	{
		sessions.POST("", authMiddleware.RoleRequired(models.RoleTeacher), c.Sessions.StartSession)
		sessions.GET("", c.Sessions.ListSessions)
		sessions.GET("/:sessionId", c.Sessions.GetSession)
		sessions.POST("/:sessionId/end", c.Sessions.EndSession)
		sessions.GET("/:sessionId/token", c.Sessions.CurrentToken)
		sessions.GET("/:sessionId/attendance", c.Sessions.SessionAttendance)
		sessions.POST("/:sessionId/attendance", c.Sessions.MarkStudent)
		sessions.DELETE("/:sessionId/attendance/:studentId", c.Sessions.UnmarkStudent)
	}

	attendance := authenticated.Group("/attendance")
	{
		attendance.POST("/redeem", student, redeemLimit, c.Attendance.Redeem)
		attendance.GET("/history", student, c.Attendance.History)
		attendance.DELETE("/records/:id", admin, c.Attendance.DeleteRecord)
	}

	timetable := authenticated.Group("/timetable")
	{
		timetable.GET("", c.Timetable.ListSlots)
		timetable.POST("", admin, c.Timetable.CreateSlot)
		timetable.DELETE("/:id", admin, c.Timetable.DeleteSlot)
	}

	syllabi := authenticated.Group("/syllabi")
	{
		syllabi.GET("", c.Syllabi.ListSyllabi)
		syllabi.POST("", admin, c.Syllabi.UploadSyllabus)
		syllabi.DELETE("/:id", admin, c.Syllabi.DeleteSyllabus)
	}

	reports := authenticated.Group("/reports", staff)
	{
		reports.GET("/attendance", c.Reports.Report)
		reports.GET("/attendance/export", c.Reports.Export)
	}
	authenticated.GET("/audit-logs", admin, c.Reports.AuditLog)
}
