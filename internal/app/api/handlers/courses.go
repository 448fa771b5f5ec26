package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/pkg/response"
)

// @Summary      List courses
// @Description  Returns the public course catalog.
// @Tags         Courses
// @Produce      json
// @Success      200  {object}  handlers.RespCourseList
// @Router       /api/v1/courses [get]
func ApiListCourses(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		courses, err := svc.ListCourses(c.Request.Context())
		if err != nil {
			writeError(c, log, "list_courses_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(courses))
	}
}

// @Summary      Get course
// @Description  Returns a course. Premium content is included only when the caller has access.
// @Tags         Courses
// @Produce      json
// @Param        courseId  path  string  true  "Course ID"
// @Success      200  {object}  handlers.RespCourseDetail
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/courses/{courseId} [get]
func ApiGetCourse(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		course, err := svc.GetCourse(c.Request.Context(), caller(c), c.Param("courseId"))
		if err != nil {
			writeError(c, log, "get_course_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(course))
	}
}

// @Summary      Course access
// @Description  Reports whether the caller may open the course and on what grounds.
// @Tags         Access
// @Produce      json
// @Param        courseId  path  string  true  "Course ID"
// @Success      200  {object}  handlers.RespAccess
// @Failure      401  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/courses/{courseId}/access [get]
func ApiCourseAccess(svc AccessService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, err := svc.EvaluateForCaller(c.Request.Context(), caller(c), c.Param("courseId"))
		if err != nil {
			writeError(c, log, "access_check_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(acc))
	}
}

type AccessRequest struct {
	UserID   string `json:"userId" binding:"required"`
	CourseID string `json:"courseId" binding:"required"`
}

// @Summary      Evaluate access
// @Description  Evaluates whether a user may open a course. Requires an authenticated caller.
// @Tags         Access
// @Accept       json
// @Produce      json
// @Param        request body AccessRequest true "User and course"
// @Success      200  {object}  handlers.RespAccess
// @Failure      401  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/access [post]
func ApiEvaluateAccess(svc AccessService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AccessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		acc, err := svc.Evaluate(c.Request.Context(), caller(c), req.UserID, req.CourseID)
		if err != nil {
			writeError(c, log, "access_check_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(acc))
	}
}

func RegisterCourseRoutes(r gin.IRouter, catalog CatalogService, acc AccessService, log *zap.SugaredLogger) {
	r.GET("/courses", ApiListCourses(catalog, log))
	r.GET("/courses/:courseId", ApiGetCourse(catalog, log))
	r.GET("/courses/:courseId/access", ApiCourseAccess(acc, log))
	r.POST("/access", ApiEvaluateAccess(acc, log))
}
