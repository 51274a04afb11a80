package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// RequestService owns item requests: wishes for items nobody listed yet.
type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger}
}

func (s *RequestService) Create(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: request description is required", database.ErrInvalidArgument)
	}

	request := &models.ItemRequest{Description: description, RequestorID: userID}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *RequestService) ListOwn(ctx context.Context, userID int64) ([]*models.RequestView, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.ListRequestsByRequestor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, requests)
}

// ListFromOthers pages through requests placed by other users; from is a
// plain page index here.
func (s *RequestService) ListFromOthers(ctx context.Context, userID int64, from, size int) ([]*models.RequestView, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.ListRequestsFromOthers(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, requests)
}

func (s *RequestService) GetByID(ctx context.Context, requestID, userID int64) (*models.RequestView, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	views, err := s.attachItems(ctx, []*models.ItemRequest{request})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *RequestService) attachItems(ctx context.Context, requests []*models.ItemRequest) ([]*models.RequestView, error) {
	views := make([]*models.RequestView, 0, len(requests))
	for _, request := range requests {
		items, err := s.repo.GetItemsByRequest(ctx, request.ID)
		if err != nil {
			return nil, err
		}
		view := &models.RequestView{ItemRequest: *request, Items: []models.Item{}}
		for _, item := range items {
			view.Items = append(view.Items, *item)
		}
		views = append(views, view)
	}
	return views, nil
}
