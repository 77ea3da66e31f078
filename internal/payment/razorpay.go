package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const DefaultRazorpayURL = "https://api.razorpay.com"

type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	if baseURL == "" {
		baseURL = DefaultRazorpayURL
	}

	return &RazorpayGateway{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: timeout},
	}
}

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type razorpayOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(razorpayOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return "", domain.GatewayError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", domain.GatewayError(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	res, err := g.client.Do(req)
	if err != nil {
		return "", domain.GatewayError(err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", domain.GatewayError(err)
	}

	if res.StatusCode != http.StatusOK {
		var errResp razorpayErrorResponse
		_ = json.Unmarshal(resBody, &errResp)

		return "", domain.GatewayError(errors.Newf(
			"create order: status %d: %s %s", res.StatusCode, errResp.Error.Code, errResp.Error.Description))
	}

	var order razorpayOrderResponse

	err = json.Unmarshal(resBody, &order)
	if err != nil {
		return "", domain.GatewayError(errors.Wrap(err, "decode order"))
	}

	if order.ID == "" {
		return "", domain.GatewayError(errors.New("create order: empty order id"))
	}

	return order.ID, nil
}
