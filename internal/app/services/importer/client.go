package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/feed"
)

// Fetcher retrieves products from an external catalog.
type Fetcher interface {
	Search(ctx context.Context, query, domain string, limit, page int) ([]feed.Product, error)
	GetByURL(ctx context.Context, productURL string) (feed.Product, error)
}

// Domains the upstream catalog operates in.
var allowedDomains = map[string]struct{}{"ru": {}, "kz": {}, "by": {}}

// NormalizeDomain validates a catalog domain, defaulting to ru.
func NormalizeDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "ru", nil
	}
	if _, ok := allowedDomains[domain]; !ok {
		return "", fmt.Errorf("unsupported domain %q", domain)
	}
	return domain, nil
}

// Client talks to the lamoda search API.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

var _ Fetcher = (*Client)(nil)

// NewClient builds a feed client. A nil http.Client gets a 15 second
// timeout default.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  "Mozilla/5.0 (compatible; trcstyle/1.0)",
	}
}

type searchResponse struct {
	Products []struct {
		SKU   string `json:"sku"`
		Title string `json:"title"`
		Brand struct {
			Title string `json:"title"`
		} `json:"brand"`
		Price     float64  `json:"price_amount"`
		OldPrice  float64  `json:"old_price_amount"`
		SEOTail   string   `json:"seo_tail"`
		Thumbnail string   `json:"thumbnail"`
		Gallery   []string `json:"gallery"`
		TypeTitle string   `json:"type_title"`
	} `json:"products"`
}

// Search queries the upstream catalog.
func (c *Client) Search(ctx context.Context, query, domain string, limit, page int) ([]feed.Product, error) {
	domain, err := NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("https://www.lamoda.%s/api/v1/search", domain)
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("https://www.lamoda.%s", domain)
	products := make([]feed.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		product := feed.Product{
			SKU:      p.SKU,
			Name:     p.Title,
			Brand:    p.Brand.Title,
			Price:    p.Price,
			URL:      base + "/p/" + strings.ToLower(p.SKU) + "/" + p.SEOTail + "/",
			ImageURL: absoluteImage(p.Thumbnail),
			Type:     p.TypeTitle,
		}
		if p.OldPrice > p.Price {
			old := p.OldPrice
			product.OldPrice = &old
		}
		for _, g := range p.Gallery {
			product.ImageURLs = append(product.ImageURLs, absoluteImage(g))
		}
		products = append(products, product)
	}
	return products, nil
}

// GetByURL fetches a single product by its catalog page URL. The SKU is
// carried in the URL path, so a one-result search against it suffices.
func (c *Client) GetByURL(ctx context.Context, productURL string) (feed.Product, error) {
	sku, domain, err := ParseProductURL(productURL)
	if err != nil {
		return feed.Product{}, err
	}
	products, err := c.Search(ctx, sku, domain, 1, 1)
	if err != nil {
		return feed.Product{}, err
	}
	for _, p := range products {
		if strings.EqualFold(p.SKU, sku) {
			return p, nil
		}
	}
	return feed.Product{}, fmt.Errorf("product %s not found upstream", sku)
}

// ParseProductURL extracts the SKU and domain from a catalog page URL.
func ParseProductURL(productURL string) (sku, domain string, err error) {
	u, err := url.Parse(strings.TrimSpace(productURL))
	if err != nil {
		return "", "", fmt.Errorf("invalid product url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	idx := strings.LastIndex(host, "lamoda.")
	if idx < 0 {
		return "", "", fmt.Errorf("not a catalog url: %s", productURL)
	}
	domain = host[idx+len("lamoda."):]
	if _, ok := allowedDomains[domain]; !ok {
		return "", "", fmt.Errorf("unsupported domain %q", domain)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "p" || parts[1] == "" {
		return "", "", fmt.Errorf("no sku in url: %s", productURL)
	}
	return strings.ToUpper(parts[1]), domain, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func absoluteImage(path string) string {
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return "https://a.lmcdn.ru/img600x866" + path
}
