package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecstatics-spaces/backoffice/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, req CustomerRequest) (*Customer, error) {
	c := fromRequest(req)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, req CustomerRequest) (*Customer, error) {
	c := fromRequest(req)
	c.ID = id
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, mapNotFound(err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func fromRequest(req CustomerRequest) *Customer {
	sameAsBilling := true
	if req.DeliverySameAsBilling != nil {
		sameAsBilling = *req.DeliverySameAsBilling
	}
	return &Customer{
		Name:                  req.Name,
		Mobile:                req.Mobile,
		Email:                 req.Email,
		Address:               req.Address,
		Landmark:              req.Landmark,
		GSTIN:                 req.GSTIN,
		ContactPerson:         req.ContactPerson,
		City:                  req.City,
		State:                 req.State,
		Region:                req.Region,
		Pincode:               req.Pincode,
		DeliveryAddress:       req.DeliveryAddress,
		DeliveryLandmark:      req.DeliveryLandmark,
		DeliveryCity:          req.DeliveryCity,
		DeliveryState:         req.DeliveryState,
		DeliveryPincode:       req.DeliveryPincode,
		DeliverySameAsBilling: sameAsBilling,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: customer", httpx.ErrNotFound)
	}
	return err
}
