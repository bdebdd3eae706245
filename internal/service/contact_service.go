package service

import (
	"context"
	"strings"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/model"
	"sipndash/internal/repository"
)

type ContactService interface {
	Submit(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactResponse, error)
	List(ctx context.Context, page, limit int) ([]dto.ContactResponse, int64, error)
}

type contactService struct {
	repo repository.ContactRepository
}

func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactService{repo: repo}
}

func (s *contactService) Submit(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactResponse, error) {
	m := &model.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if m.Message == "" {
		return nil, invalid("message", "is required")
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	resp := contactToResponse(m)
	return &resp, nil
}

func (s *contactService) List(ctx context.Context, page, limit int) ([]dto.ContactResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.ContactResponse, len(rows))
	for i := range rows {
		resp[i] = contactToResponse(&rows[i])
	}
	return resp, total, nil
}

func contactToResponse(m *model.ContactMessage) dto.ContactResponse {
	return dto.ContactResponse{
		ID:        m.ID.String(),
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Message:   m.Message,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}
