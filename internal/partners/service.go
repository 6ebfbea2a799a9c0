package partners

import (
	"context"
	"strings"

	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListVendors(ctx context.Context) ([]Vendor, error) {
	return s.repo.ListVendors(ctx)
}

func (s *Service) GetVendor(ctx context.Context, id int64) (Vendor, error) {
	return s.repo.GetVendor(ctx, id)
}

func (s *Service) CreateVendor(ctx context.Context, v Vendor) (Vendor, error) {
	if err := validateVendor(v); err != nil {
		return Vendor{}, err
	}
	v.IsActive = true
	if v.PaymentTermsDays <= 0 {
		v.PaymentTermsDays = DefaultPaymentTermsDays
	}
	return s.repo.CreateVendor(ctx, v)
}

func (s *Service) UpdateVendor(ctx context.Context, v Vendor) error {
	if err := validateVendor(v); err != nil {
		return err
	}
	return s.repo.UpdateVendor(ctx, v)
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.repo.ListClients(ctx)
}

func (s *Service) GetClient(ctx context.Context, id int64) (Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, c Client) (Client, error) {
	if err := validateClient(c); err != nil {
		return Client{}, err
	}
	c.IsActive = true
	if c.PaymentTermsDays <= 0 {
		c.PaymentTermsDays = DefaultPaymentTermsDays
	}
	return s.repo.CreateClient(ctx, c)
}

func (s *Service) UpdateClient(ctx context.Context, c Client) error {
	if err := validateClient(c); err != nil {
		return err
	}
	return s.repo.UpdateClient(ctx, c)
}

func validateVendor(v Vendor) error {
	if strings.TrimSpace(v.Name) == "" {
		return shared.NewValidationError("name", "vendor name is required")
	}
	if v.PPh23RatePercent < 0 || v.PPh23RatePercent > 100 {
		return shared.NewValidationError("pph23_rate", "rate must be between 0 and 100")
	}
	if v.SubjectToPPh23 && strings.TrimSpace(v.NPWP) == "" {
		return shared.NewValidationError("npwp", "NPWP is required for vendors subject to PPh 23")
	}
	return nil
}

func validateClient(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewValidationError("name", "client name is required")
	}
	return nil
}
