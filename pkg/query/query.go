// Package query is the filtered, paginated read surface over the store,
// shared by the HTTP layer and the export package.
package query

import (
	"context"
	"fmt"

	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
	"github.com/cyw0ng95/vulnintel/pkg/model"
	"github.com/cyw0ng95/vulnintel/pkg/store"
)

// Request is the caller-facing query shape; it maps directly onto
// store.CVEFilter but keeps the public surface independent of the
// persistence package.
type Request struct {
	CVEID      string
	Year       int
	Translated *bool
	Severity   severity.Band
	Vendor     string
	Product    string
	Descending bool
	Page       int
	PageSize   int
}

// Result is one page of matching CVEs alongside the total match count.
type Result struct {
	CVEs  []model.CVE
	Total int64
	Page  int
}

// Service answers filtered CVE queries against a store.
type Service struct {
	store *store.Store
}

// New builds a query Service over st.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// CVEs runs req against the store, capping page size per store.MaxPageSize.
func (s *Service) CVEs(ctx context.Context, req Request) (Result, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	cves, total, err := s.store.CVEQuery(ctx, store.CVEFilter{
		CVEID:      req.CVEID,
		Year:       req.Year,
		Translated: req.Translated,
		Severity:   req.Severity,
		Vendor:     req.Vendor,
		Product:    req.Product,
		Descending: req.Descending,
		Page:       page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return Result{}, fmt.Errorf("query: cves: %w", err)
	}
	return Result{CVEs: cves, Total: total, Page: page}, nil
}

// CVEByID fetches a single CVE by its exact ID, or ok=false if no match.
func (s *Service) CVEByID(ctx context.Context, cveID string) (model.CVE, bool, error) {
	cves, _, err := s.store.CVEQuery(ctx, store.CVEFilter{CVEID: cveID, PageSize: 1})
	if err != nil {
		return model.CVE{}, false, fmt.Errorf("query: cve by id: %w", err)
	}
	if len(cves) == 0 {
		return model.CVE{}, false, nil
	}
	return cves[0], true, nil
}

// VendorByName fetches a vendor by its exact name, or ok=false if no match.
func (s *Service) VendorByName(ctx context.Context, name string) (model.Vendor, bool, error) {
	v, ok, err := s.store.VendorFindByName(ctx, name)
	if err != nil {
		return model.Vendor{}, false, fmt.Errorf("query: vendor by name: %w", err)
	}
	return v, ok, nil
}

// ProductRequest is the caller-facing filter for Products.
type ProductRequest struct {
	Vendor   string
	Product  string
	Page     int
	PageSize int
}

// ProductResult is one page of matching products alongside the total match count.
type ProductResult struct {
	Products []model.Product
	Total    int64
	Page     int
}

// Products runs req against the store, capping page size per store.MaxPageSize.
func (s *Service) Products(ctx context.Context, req ProductRequest) (ProductResult, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	products, total, err := s.store.ProductQuery(ctx, store.ProductFilter{
		Vendor: req.Vendor, Product: req.Product, Page: page, PageSize: req.PageSize,
	})
	if err != nil {
		return ProductResult{}, fmt.Errorf("query: products: %w", err)
	}
	return ProductResult{Products: products, Total: total, Page: page}, nil
}

// KBRequest is the caller-facing filter for KBs.
type KBRequest struct {
	Name     string
	Source   model.KBSource
	Page     int
	PageSize int
}

// KBResult is one page of matching KB entries alongside the total match count.
type KBResult struct {
	Entries []model.KB
	Total   int64
	Page    int
}

// KBs runs req against the store, capping page size per store.MaxPageSize.
func (s *Service) KBs(ctx context.Context, req KBRequest) (KBResult, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	entries, total, err := s.store.KBQuery(ctx, store.KBFilter{
		Name: req.Name, Source: req.Source, Page: page, PageSize: req.PageSize,
	})
	if err != nil {
		return KBResult{}, fmt.Errorf("query: kbs: %w", err)
	}
	return KBResult{Entries: entries, Total: total, Page: page}, nil
}
