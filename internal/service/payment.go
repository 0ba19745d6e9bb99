package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentLinkProvider возвращает платёжную ссылку для заказа/доли/брони.
// Сбой провайдера нефатален: поле остаётся пустым и подлежит повтору.
type PaymentLinkProvider interface {
	GetPaymentLink(ctx context.Context, companyID, referenceID uuid.UUID, amount decimal.Decimal) (string, error)
}

// uniqueRef — tx_ref шлюза: uuid без дефисов.
func uniqueRef(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

type HTTPPaymentProvider struct {
	baseURL     string
	secretKey   string
	redirectURL string
	client      *http.Client
}

func NewHTTPPaymentProvider(baseURL, secretKey, redirectURL string) *HTTPPaymentProvider {
	return &HTTPPaymentProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		secretKey:   secretKey,
		redirectURL: redirectURL,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type paymentRequest struct {
	TxRef       string `json:"tx_ref"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url"`
}

type paymentResponse struct {
	Status string `json:"status"`
	Data   struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (p *HTTPPaymentProvider) GetPaymentLink(ctx context.Context, companyID, referenceID uuid.UUID, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(paymentRequest{
		TxRef:       uniqueRef(referenceID),
		Amount:      amount.StringFixed(2),
		Currency:    "NGN",
		RedirectURL: p.redirectURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}

	var pr paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("decode payment response: %w", err)
	}
	if pr.Data.Link == "" {
		return "", fmt.Errorf("payment gateway returned empty link")
	}
	return pr.Data.Link, nil
}
