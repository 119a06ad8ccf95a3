package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/revendahub/revendahub/internal/integration/bling"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"
)

// FiscalService Bling fiscal document operations for orders
type FiscalService struct {
	orderRepo    repository.OrderRepository
	companyRepo  repository.BillingCompanyRepository
	tokenService *TokenService
	blingClient  *bling.Client
	danfeDir     string
}

// NewFiscalService creates the fiscal service
func NewFiscalService(orderRepo repository.OrderRepository, companyRepo repository.BillingCompanyRepository, tokenService *TokenService, blingClient *bling.Client, danfeDir string) *FiscalService {
	return &FiscalService{
		orderRepo:    orderRepo,
		companyRepo:  companyRepo,
		tokenService: tokenService,
		blingClient:  blingClient,
		danfeDir:     danfeDir,
	}
}

// DownloadDanfe fetches the DANFE PDF for one order into the configured
// directory and returns the stored path.
func (s *FiscalService) DownloadDanfe(ctx context.Context, orderID uint) (string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", ErrOrderNotFound
	}
	if order.CompanyID == 0 {
		return "", fmt.Errorf("%w: order has no billing company", ErrTokenIncomplete)
	}
	company, err := s.companyRepo.GetByID(order.CompanyID)
	if err != nil {
		return "", err
	}
	if company == nil {
		return "", ErrNotFound
	}

	accessToken, err := s.tokenService.BlingAccessToken(ctx, company)
	if err != nil {
		return "", err
	}

	pdfURL, err := s.resolveDanfeURL(ctx, accessToken, order.DetailsJSON)
	if err != nil {
		return "", err
	}

	path, err := s.blingClient.DownloadDanfe(ctx, accessToken, order.OrderNo, pdfURL, s.danfeDir)
	if err != nil {
		return "", err
	}
	logger.Infow("danfe_downloaded", "order_id", order.ID, "order_no", order.OrderNo, "path", path)
	return path, nil
}

// resolveDanfeURL finds the PDF link, either stored on the order details or
// looked up from the linked Bling invoice.
func (s *FiscalService) resolveDanfeURL(ctx context.Context, accessToken string, details models.JSON) (string, error) {
	if v, ok := details["danfe_url"].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	nfeID, _ := details["bling_nfe_id"].(string)
	if strings.TrimSpace(nfeID) == "" {
		return "", fmt.Errorf("%w: order has no invoice reference", ErrNotFound)
	}
	nfe, err := s.blingClient.GetNFe(ctx, accessToken, strings.TrimSpace(nfeID))
	if err != nil {
		return "", err
	}
	if data, ok := nfe["data"].(map[string]interface{}); ok {
		for _, key := range []string{"linkDanfe", "linkPDF", "link"} {
			if v, ok := data[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), nil
			}
		}
	}
	return "", fmt.Errorf("%w: invoice has no DANFE link", ErrNotFound)
}
