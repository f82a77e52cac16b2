package document

import (
	"context"

	"github.com/docflow/backend/internal/domain/document"
	"github.com/docflow/backend/internal/domain/quotation"
	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func qty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MockQuotationRepository is a mock implementation of quotation.Repository
type MockQuotationRepository struct {
	mock.Mock
}

func (m *MockQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotation.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]quotation.Quotation, error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quotation.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) FindLatestApprovedForProject(ctx context.Context, projectID uuid.UUID) (*quotation.Quotation, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotation.Quotation), args.Error(1)
}

func (m *MockQuotationRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuotationRepository) Save(ctx context.Context, q *quotation.Quotation) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuotationRepository) SaveWithLock(ctx context.Context, q *quotation.Quotation) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuotationRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeliveryRepository is a mock implementation of document.DeliveryRepository
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]document.Delivery, error) {
	args := m.Called(ctx, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]document.Delivery, error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Save(ctx context.Context, d *document.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) SaveWithLock(ctx context.Context, d *document.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of document.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]document.Invoice, error) {
	args := m.Called(ctx, quotationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]document.Invoice, error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *document.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, inv *document.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
