package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"invoicer/internal/models"
	"invoicer/internal/repository"
	"invoicer/pkg/driver"
)

type SourceService struct {
	sources   *repository.SourceRepository
	customers *repository.CustomerRepository
	drivers   *driver.Registry
	log       zerolog.Logger
}

func NewSourceService(
	sources *repository.SourceRepository,
	customers *repository.CustomerRepository,
	drivers *driver.Registry,
	log zerolog.Logger,
) *SourceService {
	return &SourceService{sources: sources, customers: customers, drivers: drivers, log: log}
}

// Create tokenises raw, driver-specific payment details into a reusable
// source for the customer. The raw values are never stored; only whatever
// the driver writes onto the source survives.
func (s *SourceService) Create(ctx context.Context, customerID uint, driverSlug string, raw map[string]string, makeDefault bool) (*models.Source, error) {
	if _, err := s.customers.GetByID(customerID); err != nil {
		return nil, fmt.Errorf("customer %d: %w", customerID, err)
	}
	drv, err := s.drivers.Get(driverSlug)
	if err != nil {
		return nil, err
	}

	source := &models.Source{
		CustomerID: customerID,
		Driver:     drv.Slug(),
	}
	if err := drv.CreateSource(ctx, source, raw); err != nil {
		return nil, fmt.Errorf("driver %q create source: %w", drv.Slug(), err)
	}

	if err := s.sources.Create(source); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}
	if makeDefault {
		if err := s.sources.SetDefault(customerID, source.ID); err != nil {
			return nil, fmt.Errorf("set default source: %w", err)
		}
		source.IsDefault = true
	}

	s.log.Info().Uint("customer", customerID).Str("driver", drv.Slug()).Msg("payment source created")
	return source, nil
}

func (s *SourceService) GetByID(id uint) (*models.Source, error) {
	return s.sources.GetByID(id)
}

func (s *SourceService) ListByCustomer(customerID uint) ([]models.Source, error) {
	return s.sources.ListByCustomer(customerID)
}

func (s *SourceService) GetDefault(customerID uint) (*models.Source, error) {
	return s.sources.GetDefault(customerID)
}

func (s *SourceService) SetDefault(customerID, sourceID uint) error {
	source, err := s.sources.GetByID(sourceID)
	if err != nil {
		return err
	}
	if source.CustomerID != customerID {
		return fmt.Errorf("source %d does not belong to customer %d", sourceID, customerID)
	}
	return s.sources.SetDefault(customerID, sourceID)
}

func (s *SourceService) Delete(customerID, sourceID uint) error {
	source, err := s.sources.GetByID(sourceID)
	if err != nil {
		return err
	}
	if source.CustomerID != customerID {
		return fmt.Errorf("source %d does not belong to customer %d", sourceID, customerID)
	}
	return s.sources.Delete(sourceID)
}
