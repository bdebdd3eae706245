package service

import (
	"context"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/model"
	"sipndash/internal/repository"

	"github.com/google/uuid"
)

// CustomerService is the back-office view of everyone who has placed an order.
type CustomerService interface {
	List(ctx context.Context, search string, page, limit int) (*dto.CustomerListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error)
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) List(ctx context.Context, search string, page, limit int) (*dto.CustomerListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.repo.List(ctx, search, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.CustomerListResponse{Data: make([]dto.CustomerResponse, len(rows)), Total: total, Page: page, Limit: limit}
	for i := range rows {
		resp.Data[i] = customerToResponse(&rows[i])
	}
	return resp, nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "customer", id)
	}
	resp := customerToResponse(c)
	return &resp, nil
}

func customerToResponse(c *model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
