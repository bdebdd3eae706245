package infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PaymentGateway is the M-Pesa surface used by order placement and reconciliation.
type PaymentGateway interface {
	STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error)
	STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error)
}

// STKPushRequest asks the customer's handset to confirm a payment.
// Phone must already be in 2547XXXXXXXX form; see NormalizeMSISDN.
type STKPushRequest struct {
	Phone       string
	Amount      int64
	Reference   string
	Description string
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKQueryResponse reports the state of a previous push. ResultCode "0" means paid.
// While the customer has not answered yet Daraja replies with an error body instead.
type STKQueryResponse struct {
	ResponseCode      string `json:"ResponseCode"`
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        string `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
}

// GatewayError is a well-formed rejection from Daraja (non-zero ResponseCode or an
// error body). Transport failures are returned as plain wrapped errors.
type GatewayError struct {
	Status  int
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("daraja: %s (code %s, http %d)", e.Message, e.Code, e.Status)
}

// CodeStillProcessing is the query error Daraja returns while the customer has
// not yet answered the STK prompt.
const CodeStillProcessing = "500.001.1001"

// IsStillProcessing reports whether err is Daraja's "transaction is being processed" reply.
func IsStillProcessing(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Code == CodeStillProcessing
}

// IsGatewayOutage reports whether err means Daraja could not be reached or failed
// without a Daraja error code. Rejections carrying a code, such as an invalid
// phone or a still-processing query, are answers and return false.
func IsGatewayOutage(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Status >= 500 && (ge.Code == "" || ge.Code == "oauth")
	}
	return err != nil
}

// DarajaConfig carries the credentials for one paybill/till shortcode.
type DarajaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
}

// DarajaClient talks to the Safaricom Daraja API. The OAuth token is cached
// until shortly before it expires.
type DarajaClient struct {
	cfg        DarajaConfig
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewDarajaClient(cfg DarajaConfig) *DarajaClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &DarajaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

var _ PaymentGateway = (*DarajaClient)(nil)

// tokenSkew renews the token this long before Daraja would reject it.
const tokenSkew = 60 * time.Second

func (c *DarajaClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("daraja: create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("daraja: oauth unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{Status: resp.StatusCode, Code: "oauth", Message: "token request rejected"}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("daraja: decode token: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("daraja: empty access token")
	}

	ttl := time.Hour
	if secs, err := strconv.Atoi(body.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	if ttl > tokenSkew {
		ttl -= tokenSkew
	}
	c.token = body.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.token, nil
}

// Timestamp formats t the way Daraja expects (YYYYMMDDHHMMSS).
func Timestamp(t time.Time) string { return t.Format("20060102150405") }

// Password is base64(shortcode + passkey + timestamp).
func (c *DarajaClient) Password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
}

// STKPush sends a CustomerPayBillOnline prompt. A non-"0" ResponseCode is a *GatewayError.
func (c *DarajaClient) STKPush(ctx context.Context, in STKPushRequest) (*STKPushResponse, error) {
	ts := Timestamp(c.now())
	payload := map[string]string{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          c.Password(ts),
		"Timestamp":         ts,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            strconv.FormatInt(in.Amount, 10),
		"PartyA":            in.Phone,
		"PartyB":            c.cfg.ShortCode,
		"PhoneNumber":       in.Phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  in.Reference,
		"TransactionDesc":   in.Description,
	}

	var out STKPushResponse
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", payload, &out); err != nil {
		return nil, err
	}
	if out.ResponseCode != "0" {
		return nil, &GatewayError{Status: http.StatusOK, Code: out.ResponseCode, Message: out.ResponseDescription}
	}
	return &out, nil
}

// STKQuery asks Daraja for the outcome of a push that never called back.
func (c *DarajaClient) STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	ts := Timestamp(c.now())
	payload := map[string]string{
		"BusinessShortCode": c.cfg.ShortCode,
		"Password":          c.Password(ts),
		"Timestamp":         ts,
		"CheckoutRequestID": checkoutRequestID,
	}
	var out STKQueryResponse
	if err := c.post(ctx, "/mpesa/stkpushquery/v1/query", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DarajaClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("daraja: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("daraja: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daraja: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			ErrorCode    string `json:"errorCode"`
			ErrorMessage string `json:"errorMessage"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.ErrorMessage == "" {
			apiErr.ErrorMessage = http.StatusText(resp.StatusCode)
		}
		return &GatewayError{Status: resp.StatusCode, Code: apiErr.ErrorCode, Message: apiErr.ErrorMessage}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("daraja: decode response: %w", err)
	}
	return nil
}

// ErrInvalidPhone is returned for numbers that cannot be expressed as a Kenyan MSISDN.
var ErrInvalidPhone = errors.New("phone must be a Kenyan mobile number (07XXXXXXXX, 01XXXXXXXX or 254XXXXXXXXX)")

// NormalizeMSISDN converts local and international notations to 254XXXXXXXXX.
func NormalizeMSISDN(phone string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	p = strings.TrimPrefix(p, "+")

	switch {
	case len(p) == 10 && strings.HasPrefix(p, "0"):
		p = "254" + p[1:]
	case len(p) == 9 && (strings.HasPrefix(p, "7") || strings.HasPrefix(p, "1")):
		p = "254" + p
	}

	if len(p) != 12 || !strings.HasPrefix(p, "254") {
		return "", ErrInvalidPhone
	}
	if p[3] != '7' && p[3] != '1' {
		return "", ErrInvalidPhone
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return p, nil
}
