package service

import (
	"strings"

	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"
)

// BillingService resolves the billing company and payment gateway for a
// buyer. Resolution is read-only, companies are scanned in insertion order.
type BillingService struct {
	companyRepo repository.BillingCompanyRepository
	gatewayRepo repository.PaymentGatewayRepository
}

// NewBillingService creates the billing service
func NewBillingService(companyRepo repository.BillingCompanyRepository, gatewayRepo repository.PaymentGatewayRepository) *BillingService {
	return &BillingService{
		companyRepo: companyRepo,
		gatewayRepo: gatewayRepo,
	}
}

// ResolveForState picks the active company serving the buyer's state.
// The first company listing the state wins, then the default company,
// then nil so checkout can fall back to env-configured credentials.
func (s *BillingService) ResolveForState(state string) (*models.BillingCompany, error) {
	normalized := strings.ToUpper(strings.TrimSpace(state))

	companies, err := s.companyRepo.ListActive()
	if err != nil {
		return nil, err
	}
	if normalized != "" {
		for i := range companies {
			if companies[i].States.Contains(normalized) {
				return &companies[i], nil
			}
		}
	}
	for i := range companies {
		if companies[i].IsDefault {
			return &companies[i], nil
		}
	}
	return nil, nil
}

// GatewayOption the best gateway for one payment method
type GatewayOption struct {
	Method  string                 `json:"method"`
	Gateway *models.PaymentGateway `json:"gateway"`
}

// GatewayOptions aggregates the supported payment methods of a company's
// active gateways, mapping each method to its highest-priority gateway.
func (s *BillingService) GatewayOptions(company *models.BillingCompany) ([]GatewayOption, error) {
	if company == nil {
		return nil, nil
	}
	gateways, err := s.gatewayRepo.ListByCompany(company.ID, true)
	if err != nil {
		return nil, err
	}

	options := make([]GatewayOption, 0, 2)
	seen := make(map[string]bool, 2)
	// gateways come ordered by priority DESC, id ASC
	for i := range gateways {
		for _, method := range gateways[i].SupportedMethods {
			if seen[method] {
				continue
			}
			seen[method] = true
			options = append(options, GatewayOption{
				Method:  method,
				Gateway: &gateways[i],
			})
		}
	}
	return options, nil
}

// GatewayByID fetches one gateway row
func (s *BillingService) GatewayByID(id uint) (*models.PaymentGateway, error) {
	return s.gatewayRepo.GetByID(id)
}

// SelectGateway picks the highest-priority active gateway of a company that
// supports the payment method.
func (s *BillingService) SelectGateway(companyID uint, method string) (*models.PaymentGateway, error) {
	gateways, err := s.gatewayRepo.ListByCompany(companyID, true)
	if err != nil {
		return nil, err
	}
	for i := range gateways {
		if gateways[i].SupportsMethod(method) {
			return &gateways[i], nil
		}
	}
	return nil, ErrNoGatewayForMethod
}
