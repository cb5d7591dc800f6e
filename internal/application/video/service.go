package video

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/pkg/id"
	"github.com/akvora-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle    = "title"
	fieldEmbedURL = "embed_url"
)

type Service interface {
	Create(ctx context.Context, createdBy string, req domain.CreateVideoRequest) (*domain.Video, error)
	List(ctx context.Context) ([]domain.Video, error)
	Get(ctx context.Context, videoID string) (*domain.Video, error)
	Update(ctx context.Context, videoID string, req domain.UpdateVideoRequest) (*domain.Video, error)
	Delete(ctx context.Context, videoID string) error
}

type videoStore interface {
	Put(ctx context.Context, v *domain.Video) error
	Get(ctx context.Context, videoID string) (*domain.Video, error)
	List(ctx context.Context) ([]domain.Video, error)
	Update(ctx context.Context, videoID string, updates map[string]interface{}) error
	Delete(ctx context.Context, videoID string) error
}

type service struct {
	repo videoStore
	now  func() time.Time
}

func NewService(repo videoStore) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, createdBy string, req domain.CreateVideoRequest) (*domain.Video, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.EmbedURL = strings.TrimSpace(req.EmbedURL)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	v := &domain.Video{
		VideoID:   id.New(),
		Title:     req.Title,
		EmbedURL:  req.EmbedURL,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	return v, nil
}

// List returns every video, newest first.
func (s *service) List(ctx context.Context) ([]domain.Video, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *service) Get(ctx context.Context, videoID string) (*domain.Video, error) {
	return s.repo.Get(ctx, videoID)
}

func (s *service) Update(ctx context.Context, videoID string, req domain.UpdateVideoRequest) (*domain.Video, error) {
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		req.Title = &t
	}
	if req.EmbedURL != nil {
		u := strings.TrimSpace(*req.EmbedURL)
		req.EmbedURL = &u
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.EmbedURL != nil {
		updates[fieldEmbedURL] = *req.EmbedURL
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, videoID, updates); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}
	return s.repo.Get(ctx, videoID)
}

func (s *service) Delete(ctx context.Context, videoID string) error {
	if err := s.repo.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}
