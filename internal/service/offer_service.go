package service

import (
	"context"
	"strings"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/model"
	"sipndash/internal/repository"

	"github.com/google/uuid"
)

type OfferService interface {
	ListActive(ctx context.Context) ([]dto.OfferResponse, error)
	ListAll(ctx context.Context) ([]dto.OfferResponse, error)
	Create(ctx context.Context, req dto.CreateOfferRequest) (*dto.OfferResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateOfferRequest) (*dto.OfferResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type offerService struct {
	repo repository.OfferRepository
	now  func() time.Time
}

func NewOfferService(repo repository.OfferRepository) OfferService {
	return &offerService{repo: repo, now: time.Now}
}

func (s *offerService) ListActive(ctx context.Context) ([]dto.OfferResponse, error) {
	now := s.now()
	return s.list(ctx, &now)
}

func (s *offerService) ListAll(ctx context.Context) ([]dto.OfferResponse, error) {
	return s.list(ctx, nil)
}

func (s *offerService) list(ctx context.Context, activeAt *time.Time) ([]dto.OfferResponse, error) {
	offers, err := s.repo.List(ctx, activeAt)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OfferResponse, len(offers))
	for i := range offers {
		resp[i] = offerToResponse(&offers[i])
	}
	return resp, nil
}

func (s *offerService) Create(ctx context.Context, req dto.CreateOfferRequest) (*dto.OfferResponse, error) {
	discountType := req.DiscountType
	if discountType == "" {
		discountType = "percentage"
	}
	o := &model.Offer{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     req.Category,
		Discount:     req.Discount,
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountType: discountType,
		EndDate:      req.EndDate,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	resp := offerToResponse(o)
	return &resp, nil
}

func (s *offerService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateOfferRequest) (*dto.OfferResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "offer", id)
	}
	if req.Title != nil {
		o.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		o.Description = *req.Description
	}
	if req.Category != nil {
		o.Category = *req.Category
	}
	if req.Discount != nil {
		o.Discount = *req.Discount
	}
	if req.Code != nil {
		o.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.DiscountType != nil {
		o.DiscountType = *req.DiscountType
	}
	if req.EndDate != nil {
		o.EndDate = *req.EndDate
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	resp := offerToResponse(o)
	return &resp, nil
}

func (s *offerService) Delete(ctx context.Context, id uuid.UUID) error {
	return mapNotFound(s.repo.Delete(ctx, id), "offer", id)
}

func offerToResponse(o *model.Offer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:           o.ID.String(),
		Title:        o.Title,
		Description:  o.Description,
		Category:     o.Category,
		Discount:     o.Discount,
		Code:         o.Code,
		DiscountType: o.DiscountType,
		EndDate:      o.EndDate.Format(time.RFC3339),
	}
}
