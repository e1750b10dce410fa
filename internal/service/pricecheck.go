package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/superc/price-alert/internal/repository"
)

// pricePattern matches the first price on a product page, e.g. "4.99";
// titlePattern pulls the product name out of the page's title element.
var (
	pricePattern = regexp.MustCompile(`(\d+\.\d{2})`)
	titlePattern = regexp.MustCompile(`class="head__title"[^>]*>\s*([^<]+?)\s*<`)
)

// PriceFetcher retrieves the current price and display name for a product
// number. The store website is an external collaborator; the default
// implementation fetches the search page and extracts the first price with a
// regex.
type PriceFetcher interface {
	Fetch(ctx context.Context, productNumber string) (name string, price float64, err error)
}

// HTTPFetcher scrapes the store's public search page.
type HTTPFetcher struct {
	BaseURL string // e.g. https://www.superc.ca/en/search?filter=
	Client  *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, productNumber string) (string, float64, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+productNumber, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("fetch %s: status %d", productNumber, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, err
	}
	m := pricePattern.FindSubmatch(body)
	if m == nil {
		return "", 0, fmt.Errorf("fetch %s: no price found", productNumber)
	}
	price, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return "", 0, err
	}
	// The title sits next to the price in the page markup; a page without
	// one still yields a usable price.
	var name string
	if t := titlePattern.FindSubmatch(body); t != nil {
		name = string(t[1])
	}
	return name, price, nil
}

// PriceChecker walks every tracking request, refreshes catalog prices and
// queues an alert for each request whose threshold is met. It is scheduled by
// cron from main; Run is also safe to invoke manually.
type PriceChecker struct {
	Tracking *repository.TrackingRepo
	Users    *repository.UserRepo
	Products *repository.ProductRepo
	Fetcher  PriceFetcher
	Notifier Notifier
}

// Run performs one sweep. A failure on one product is logged and the sweep
// continues; the sweep never fails the process.
func (p *PriceChecker) Run(ctx context.Context) {
	requests, err := p.Tracking.ListAll(ctx)
	if err != nil {
		log.Printf("pricecheck: list tracking requests: %v", err)
		return
	}

	// Fetch each product number once per sweep even when several users
	// track it.
	prices := make(map[string]float64)
	names := make(map[string]string)
	for _, req := range requests {
		if _, done := prices[req.ProductNumber]; done {
			continue
		}
		name, price, err := p.Fetcher.Fetch(ctx, req.ProductNumber)
		if err != nil {
			log.Printf("pricecheck: product %s: %v", req.ProductNumber, err)
			continue
		}
		prices[req.ProductNumber] = price
		names[req.ProductNumber] = name
		if err := p.Products.UpsertPrice(ctx, req.ProductNumber, name, price); err != nil {
			log.Printf("pricecheck: upsert product %s: %v", req.ProductNumber, err)
		}
	}

	for _, req := range requests {
		price, ok := prices[req.ProductNumber]
		if !ok || price > req.MaxPrice {
			continue
		}
		u, err := p.Users.GetByID(ctx, req.UserID)
		if err != nil {
			log.Printf("pricecheck: load user %d: %v", req.UserID, err)
			continue
		}
		if err := p.Notifier.PriceAlert(ctx, u.Email, req.ProductNumber, names[req.ProductNumber], price, req.MaxPrice); err != nil {
			log.Printf("pricecheck: queue alert for %s: %v", u.Email, err)
		}
	}
}
