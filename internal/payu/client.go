package payu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"boxshop_back_end/internal/config"
	"boxshop_back_end/internal/models"
)

// Taxonomie d'erreurs de la passerelle. Aucune n'est réessayée ici :
// la politique de retry appartient à l'appelant (et le service commandes
// ne réessaie pas — l'échec remonte au client qui resoumet).
var (
	// ErrAuth : échec de l'échange client_credentials. Sans jeton valide,
	// aucune commande ne part vers la passerelle.
	ErrAuth = errors.New("payu: échec d'authentification")

	// ErrUnreachable : panne de transport. Un timeout côté client ne dit
	// pas si la passerelle a fini par accepter la commande — cette
	// ambiguïté est inhérente au protocole, on la documente sans la
	// résoudre.
	ErrUnreachable = errors.New("payu: passerelle injoignable")

	// ErrMalformed : réponse 2xx sans redirectUri ou orderId.
	ErrMalformed = errors.New("payu: réponse malformée")
)

// RejectedError : la passerelle a répondu non-2xx. Le corps brut est
// conservé pour le diagnostic.
type RejectedError struct {
	StatusCode int
	Body       []byte
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("payu: commande rejetée (HTTP %d): %s", e.StatusCode, e.Body)
}

// Client parle à l'API REST de PayU : échange OAuth client_credentials
// puis création de commande signée.
type Client struct {
	cfg  config.PayUConfig
	http *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg config.PayUConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// --- Payload de création de commande ---

type Buyer struct {
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Language  string `json:"language"`
}

type Product struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
}

type OrderRequest struct {
	NotifyURL     string    `json:"notifyUrl"`
	ContinueURL   string    `json:"continueUrl"`
	CustomerIP    string    `json:"customerIp"`
	MerchantPosID string    `json:"merchantPosId"`
	Description   string    `json:"description"`
	CurrencyCode  string    `json:"currencyCode"`
	TotalAmount   string    `json:"totalAmount"`
	ExtOrderID    string    `json:"extOrderId"`
	Buyer         Buyer     `json:"buyer"`
	Products      []Product `json:"products"`
}

type CreateOrderResult struct {
	RedirectURI    string
	GatewayOrderID string
}

type createOrderResponse struct {
	RedirectURI string `json:"redirectUri"`
	OrderID     string `json:"orderId"`
}

// CreateOrder obtient un jeton, construit le payload, le signe et le
// soumet. Chaque étape est un point d'échec distinct.
func (c *Client) CreateOrder(ctx context.Context, order models.Order) (*CreateOrderResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := c.buildOrderRequest(order)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payu: sérialisation payload: %w", err)
	}

	// Les octets signés sont exactement les octets envoyés.
	signature := Sign(body, c.cfg.PosID, c.cfg.SecondKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/v2_1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("OpenPayu-Signature", signature)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: respBody}
	}

	var parsed createOrderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// L'absence de l'un ou l'autre est une réponse malformée, pas un
	// cas silencieux.
	if parsed.RedirectURI == "" || parsed.OrderID == "" {
		return nil, fmt.Errorf("%w: redirectUri ou orderId manquant", ErrMalformed)
	}

	return &CreateOrderResult{
		RedirectURI:    parsed.RedirectURI,
		GatewayOrderID: parsed.OrderID,
	}, nil
}

// accessToken retourne un jeton bearer valide, mis en cache jusqu'à
// une marge avant expiration.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/pl/standard/user/oauth/authorize",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrAuth, resp.StatusCode, body)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token absent", ErrAuth)
	}

	c.token = parsed.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(parsed.ExpiresIn)*time.Second - 30*time.Second)

	return c.token, nil
}

// buildOrderRequest assemble le payload PayU depuis la commande locale.
// extOrderId = identifiant local : c'est la clé de corrélation utilisée
// ensuite par la réconciliation des webhooks.
func (c *Client) buildOrderRequest(order models.Order) OrderRequest {
	firstName, lastName := splitFullName(order.Customer.FullName, c.cfg.BrandName)

	email := order.Customer.Email
	if email == "" {
		email = c.cfg.PlaceholderEmail
	}

	products := make([]Product, 0, len(order.Cart))
	for _, item := range order.Cart {
		products = append(products, Product{
			Name:      item.Name,
			UnitPrice: strconv.FormatInt(models.MinorUnits(item.Price), 10),
			Quantity:  strconv.Itoa(item.Quantity),
		})
	}

	return OrderRequest{
		NotifyURL:     c.cfg.NotifyURL,
		ContinueURL:   c.cfg.ContinueURL,
		CustomerIP:    "127.0.0.1",
		MerchantPosID: c.cfg.PosID,
		Description:   fmt.Sprintf("Zamówienie %s — %s", c.cfg.BrandName, order.LocalOrderID),
		CurrencyCode:  c.cfg.CurrencyCode,
		TotalAmount:   strconv.FormatInt(order.AmountMinorUnits, 10),
		ExtOrderID:    order.LocalOrderID,
		Buyer: Buyer{
			Email:     email,
			Phone:     order.Customer.Phone,
			FirstName: firstName,
			LastName:  lastName,
			Language:  "pl",
		},
		Products: products,
	}
}

// splitFullName découpe "Imię Nazwisko" en prénom/nom, avec repli sur
// "Customer" + le nom de la boutique quand le champ est vide.
func splitFullName(fullName, brand string) (string, string) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return "Customer", brand
	}
	first, last, ok := strings.Cut(fullName, " ")
	if !ok {
		return fullName, brand
	}
	return first, last
}
