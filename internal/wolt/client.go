package wolt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"cheapcart/internal/models"
)

const (
	// MaxStores caps the venue list at the directory's own top ranked entries.
	MaxStores = 20
	// MaxSearchResults caps product search results the same way.
	MaxSearchResults = 20
)

var ErrMalformedResponse = errors.New("malformed store directory response")

// Client talks to the Wolt consumer API.
type Client struct {
	baseURL    string
	country    string
	currency   string
	httpClient *http.Client
}

func NewClient(baseURL, country, currency string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		country:    country,
		currency:   currency,
		httpClient: httpClient,
	}
}

type venueListResponse struct {
	Sections []struct {
		Items []struct {
			Title string `json:"title"`
			Venue *struct {
				ID               string `json:"id"`
				Slug             string `json:"slug"`
				DeliveryPriceInt int64  `json:"delivery_price_int"`
			} `json:"venue"`
		} `json:"items"`
	} `json:"sections"`
}

// NearbyStores lists grocery venues delivering to (lat, lon) in the order the
// directory ranks them.
func (c *Client) NearbyStores(ctx context.Context, lat, lon float64) ([]models.Store, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	reqURL := c.baseURL + "/v1/pages/venue-list/category-grocery?" + q.Encode()

	var body venueListResponse
	if err := c.do(ctx, http.MethodGet, reqURL, nil, &body); err != nil {
		return nil, fmt.Errorf("nearby stores: %w", err)
	}
	if len(body.Sections) == 0 {
		return nil, fmt.Errorf("nearby stores: %w", ErrMalformedResponse)
	}

	stores := make([]models.Store, 0, MaxStores)
	for _, item := range body.Sections[0].Items {
		if item.Venue == nil || item.Venue.Slug == "" {
			continue
		}
		stores = append(stores, models.Store{
			Name:            item.Title,
			Slug:            item.Venue.Slug,
			VenueID:         item.Venue.ID,
			DeliveryBaseFee: fromCents(item.Venue.DeliveryPriceInt),
		})
		if len(stores) == MaxStores {
			break
		}
	}
	return stores, nil
}

type pricingEstimateRequest struct {
	PurchasePlan purchasePlan `json:"purchase_plan"`
}

type purchasePlan struct {
	Venue struct {
		ID       string `json:"id"`
		Country  string `json:"country"`
		Currency string `json:"currency"`
	} `json:"venue"`
	DeliveryMethod      string   `json:"delivery_method"`
	MenuItems           []string `json:"menu_items"`
	CourierTip          int      `json:"courier_tip"`
	UsePromoDiscountIDs []string `json:"use_promo_discount_ids"`
	Delivery            struct {
		Coordinates struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"delivery_coordinates"`
	} `json:"delivery"`
}

type pricingEstimateResponse struct {
	DeliveryFee *struct {
		Amount *struct {
			Amount int64 `json:"amount"`
		} `json:"amount"`
	} `json:"delivery_fee"`
}

// DeliveryFee estimates the fee of delivering from venueID to (lat, lon).
func (c *Client) DeliveryFee(ctx context.Context, venueID string, lat, lon float64) (float64, error) {
	var plan pricingEstimateRequest
	plan.PurchasePlan.Venue.ID = venueID
	plan.PurchasePlan.Venue.Country = c.country
	plan.PurchasePlan.Venue.Currency = c.currency
	plan.PurchasePlan.DeliveryMethod = "homedelivery"
	plan.PurchasePlan.MenuItems = []string{}
	plan.PurchasePlan.UsePromoDiscountIDs = []string{}
	plan.PurchasePlan.Delivery.Coordinates.Latitude = lat
	plan.PurchasePlan.Delivery.Coordinates.Longitude = lon

	var body pricingEstimateResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/order-xp/web/v1/pages/venue/pricing-estimates", plan, &body); err != nil {
		return 0, fmt.Errorf("delivery fee for %s: %w", venueID, err)
	}
	if body.DeliveryFee == nil || body.DeliveryFee.Amount == nil {
		return 0, fmt.Errorf("delivery fee for %s: %w", venueID, ErrMalformedResponse)
	}
	return fromCents(body.DeliveryFee.Amount.Amount), nil
}

type searchResponse struct {
	Items []struct {
		ID                     string  `json:"id"`
		Name                   string  `json:"name"`
		Price                  *int64  `json:"price"`
		UnitInfo               string  `json:"unit_info"`
		MaxQuantityPerPurchase *int    `json:"max_quantity_per_purchase"`
		Images                 []image `json:"images"`
	} `json:"items"`
}

type image struct {
	URL string `json:"url"`
}

// SearchProduct returns the raw candidates the store search yields for query.
// Items lacking an id, name, price or unit info are dropped.
func (c *Client) SearchProduct(ctx context.Context, storeSlug, query string) ([]models.CatalogProduct, error) {
	reqURL := fmt.Sprintf("%s/consumer-api/consumer-assortment/v1/venues/slug/%s/assortment/items/search?language=en",
		c.baseURL, url.PathEscape(storeSlug))

	var body searchResponse
	if err := c.do(ctx, http.MethodPost, reqURL, map[string]string{"q": query}, &body); err != nil {
		return nil, fmt.Errorf("search %q in %s: %w", query, storeSlug, err)
	}

	products := make([]models.CatalogProduct, 0, len(body.Items))
	for _, item := range body.Items {
		if item.ID == "" || item.Name == "" || item.Price == nil || item.UnitInfo == "" {
			continue
		}
		p := models.CatalogProduct{
			ItemID:   item.ID,
			Name:     item.Name,
			UnitInfo: item.UnitInfo,
			Price:    fromCents(*item.Price),
		}
		if item.MaxQuantityPerPurchase != nil {
			p.MaxQuantityPerPurchase = *item.MaxQuantityPerPurchase
		}
		if len(item.Images) > 0 {
			p.ImageURL = item.Images[0].URL
		}
		products = append(products, p)
		if len(products) == MaxSearchResults {
			break
		}
	}
	return products, nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, payload, out any) error {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func fromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
