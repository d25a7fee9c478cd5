package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/repository"
	infraRepo "github.com/sangkips/billing-api/internal/infrastructure/repository"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/sangkips/billing-api/pkg/validator"
	"go.uber.org/zap"
)

const duplicateAadharMessage = "A customer with this Aadhar number already exists"

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
	log          *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository, log *zap.Logger) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, log: log.Named("customer")}
}

// CustomerInput is the full set of customer fields, used for create and update
type CustomerInput struct {
	Name     string `json:"name" validate:"required"`
	AadharNo string `json:"aadhar_no" validate:"required,aadhar"`
	PhoneNo  string `json:"phone_no" validate:"required,phone"`
	Address  string `json:"address" validate:"required"`
}

func (in *CustomerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.AadharNo = strings.TrimSpace(in.AadharNo)
	in.PhoneNo = strings.TrimSpace(in.PhoneNo)
	in.Address = strings.TrimSpace(in.Address)
}

// CreateCustomer creates a new customer. The Aadhar number must not belong
// to another live customer.
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CustomerInput) (*entity.Customer, error) {
	input.normalize()
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	if err := s.ensureAadharFree(ctx, input.AadharNo, uuid.Nil); err != nil {
		return nil, err
	}

	customer := &entity.Customer{
		Name:     input.Name,
		AadharNo: input.AadharNo,
		PhoneNo:  input.PhoneNo,
		Address:  input.Address,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if infraRepo.IsUniqueViolation(err) {
			return nil, apperror.NewConflictError(duplicateAadharMessage)
		}
		return nil, err
	}

	s.log.Info("customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers lists customers newest first
func (s *CustomerService) ListCustomers(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, int64, error) {
	customers, total, err := s.customerRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	if customers == nil {
		customers = []entity.Customer{}
	}
	return customers, total, nil
}

// UpdateCustomer replaces every field of a customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, input *CustomerInput) (*entity.Customer, error) {
	input.normalize()
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if customer.AadharNo != input.AadharNo {
		if err := s.ensureAadharFree(ctx, input.AadharNo, id); err != nil {
			return nil, err
		}
	}

	customer.Name = input.Name
	customer.AadharNo = input.AadharNo
	customer.PhoneNo = input.PhoneNo
	customer.Address = input.Address

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		if infraRepo.IsUniqueViolation(err) {
			return nil, apperror.NewConflictError(duplicateAadharMessage)
		}
		return nil, err
	}

	return customer, nil
}

// DeleteCustomer soft deletes a customer. Bills that reference it are kept.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("customer deleted", zap.String("customer_id", id.String()))
	return nil
}

func (s *CustomerService) ensureAadharFree(ctx context.Context, aadharNo string, self uuid.UUID) error {
	existing, err := s.customerRepo.GetByAadhar(ctx, aadharNo)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return apperror.NewConflictError(duplicateAadharMessage)
	}
	return nil
}
