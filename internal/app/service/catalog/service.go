package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/access"
	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/apperr"
)

// CourseSummary is the public listing view of a course.
type CourseSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Price       float64 `json:"price"`
}

// CourseDetail adds the caller's access decision and, when granted, the content.
type CourseDetail struct {
	CourseSummary
	Access  *access.Access        `json:"access"`
	Content *models.CourseContent `json:"content,omitempty"`
}

type Service struct {
	repo   repository.Repository
	access *access.Service
	log    *zap.SugaredLogger
}

func NewService(repo repository.Repository, acc *access.Service, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, access: acc, log: log}
}

func summary(c *models.Course) *CourseSummary {
	return &CourseSummary{ID: c.ID, Title: c.Title, Description: c.Description, ImageURL: c.ImageURL, Price: c.Price}
}

func (s *Service) ListCourses(ctx context.Context) ([]*CourseSummary, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return lo.Map(courses, func(c *models.Course, _ int) *CourseSummary { return summary(c) }), nil
}

// GetCourse returns a course for the caller. Anonymous or unknown callers see
// the course without content.
func (s *Service) GetCourse(ctx context.Context, externalID, courseID string) (*CourseDetail, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	detail := &CourseDetail{CourseSummary: *summary(course), Access: &access.Access{}}
	if externalID == "" {
		return detail, nil
	}
	acc, err := s.access.EvaluateForCaller(ctx, externalID, course.ID)
	switch {
	case errors.Is(err, apperr.ErrUserNotFound):
		return detail, nil
	case err != nil:
		return nil, err
	}
	detail.Access = acc
	if acc.HasAccess {
		content := course.Content.Data()
		detail.Content = &content
	}
	return detail, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
