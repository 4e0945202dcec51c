package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusgate/campusgate-api/internal/middleware"
	"github.com/campusgate/campusgate-api/internal/models"
	"github.com/campusgate/campusgate-api/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Class        *ClassHandler
	Section      *SectionHandler
	Student      *StudentHandler
	Teacher      *TeacherHandler
	Course       *CourseHandler
	Schedule     *ScheduleHandler
	Announcement *AnnouncementHandler
	Material     *MaterialHandler
	Submission   *SubmissionHandler
	Attendance   *AttendanceHandler
	Leave        *LeaveHandler
	Settings     *SettingsHandler
	Metrics      *MetricsHandler
}

// Register mounts all API routes under the given prefix.
func Register(r *gin.Engine, prefix string, h Handlers, authService *service.AuthService) {
	api := r.Group(prefix)

	// Public routes. The export download is authenticated by its signed
	// token rather than a session.
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)
	api.GET("/attendance/exports/:id/download", h.Attendance.DownloadExport)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))

	authed.POST("/auth/logout", h.Auth.Logout)
	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	teacher := middleware.RequireRoles(models.RoleTeacher)
	student := middleware.RequireRoles(models.RoleStudent)

	// Classes and sections are admin-managed, readable by staff.
	authed.POST("/classes", admin, h.Class.Create)
	authed.GET("/classes", staff, h.Class.List)
	authed.GET("/classes/:id", staff, h.Class.Get)
	authed.PUT("/classes/:id", admin, h.Class.Update)
	authed.DELETE("/classes/:id", admin, h.Class.Delete)
	authed.GET("/classes/:id/sections", staff, h.Class.Sections)
	authed.GET("/classes/:id/stats", staff, h.Class.Stats)

	authed.POST("/sections", admin, h.Section.Create)
	authed.GET("/sections", staff, h.Section.List)
	authed.GET("/sections/stats", staff, h.Section.Stats)
	authed.GET("/sections/:id", staff, h.Section.Get)
	authed.PUT("/sections/:id", admin, h.Section.Update)
	authed.DELETE("/sections/:id", admin, h.Section.Delete)
	authed.GET("/sections/:id/students", staff, h.Section.Students)

	authed.POST("/students", admin, h.Student.Create)
	authed.GET("/students", staff, h.Student.List)
	authed.GET("/students/:id", staff, h.Student.Get)
	authed.PUT("/students/:id", admin, h.Student.Update)
	authed.DELETE("/students/:id", admin, h.Student.Delete)

	authed.POST("/teachers", admin, h.Teacher.Create)
	authed.GET("/teachers", staff, h.Teacher.List)
	authed.GET("/teachers/:id", staff, h.Teacher.Get)
	authed.PUT("/teachers/:id", admin, h.Teacher.Update)
	authed.DELETE("/teachers/:id", admin, h.Teacher.Delete)

	authed.POST("/courses", admin, h.Course.Create)
	authed.GET("/courses", staff, h.Course.List)
	authed.GET("/courses/mine", teacher, h.Course.Mine)
	authed.GET("/courses/:id", staff, h.Course.Get)
	authed.PUT("/courses/:id", admin, h.Course.Update)
	authed.DELETE("/courses/:id", admin, h.Course.Delete)
	authed.POST("/courses/:id/schedules", admin, h.Schedule.Create)
	authed.GET("/courses/:id/schedules", staff, h.Schedule.ListByCourse)
	authed.GET("/courses/:id/attendance/me", student, h.Attendance.MyCourseAttendance)

	authed.GET("/schedules/mine", teacher, h.Schedule.Mine)
	authed.GET("/schedules/:id", h.Schedule.Get)
	authed.DELETE("/schedules/:id", admin, h.Schedule.Delete)
	authed.GET("/schedules/:id/roster", staff, h.Attendance.Roster)

	authed.POST("/schedules/:id/attendance", teacher, h.Attendance.Mark)
	authed.GET("/schedules/:id/attendance", teacher, h.Attendance.List)
	authed.POST("/schedules/:id/attendance/exports", teacher, h.Attendance.RequestExport)
	authed.GET("/attendance/exports/:id", teacher, h.Attendance.GetExport)

	authed.POST("/schedules/:id/materials", teacher, h.Material.Upload)
	authed.GET("/schedules/:id/materials", h.Material.List)
	authed.GET("/materials/:id/download", h.Material.Download)
	authed.DELETE("/materials/:id", teacher, h.Material.Delete)

	authed.POST("/submissions", teacher, h.Submission.Create)
	authed.GET("/submissions/mine", teacher, h.Submission.Mine)
	authed.GET("/submissions/active", student, h.Submission.Active)
	authed.POST("/submissions/:id/uploads", student, h.Submission.Upload)
	authed.GET("/submissions/:id/uploads", teacher, h.Submission.Uploads)
	authed.GET("/submissions/:id/uploads/mine", student, h.Submission.MyUpload)

	authed.POST("/announcements", admin, h.Announcement.Create)
	authed.GET("/announcements", h.Announcement.List)
	authed.GET("/announcements/:id", h.Announcement.Get)
	authed.PUT("/announcements/:id", admin, h.Announcement.Update)
	authed.DELETE("/announcements/:id", admin, h.Announcement.Delete)

	authed.POST("/leave-requests", student, h.Leave.Create)
	authed.GET("/leave-requests/mine", student, h.Leave.Mine)
	authed.GET("/leave-requests/pending", teacher, h.Leave.Pending)
	authed.PUT("/leave-requests/:id/status", teacher, h.Leave.UpdateStatus)

	authed.GET("/settings", h.Settings.Get)
	authed.PUT("/settings", admin, h.Settings.Update)

	authed.GET("/metrics/snapshot", admin, h.Metrics.Snapshot)
	r.GET("/metrics", h.Metrics.Prometheus)
}
