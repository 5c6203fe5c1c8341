package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stockledger/internal/domain"
	"stockledger/internal/repository"
	"stockledger/internal/service"

	"go.uber.org/zap"
)

type mockProductRepository struct {
	products []*domain.Product
	nextID   int64
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{nextID: 1}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = m.nextID
	m.nextID++
	m.products = append(m.products, product)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	for _, product := range m.products {
		if product.ID == id {
			return product, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	return m.products, nil
}

func newTestProductHandler() (*ProductHandler, *mockProductRepository) {
	productRepo := newMockProductRepository()
	logger, _ := zap.NewDevelopment()
	return NewProductHandler(service.NewCatalogService(productRepo), logger), productRepo
}

func TestCreateProductPersistsAndEchoes(t *testing.T) {
	handler, productRepo := newTestProductHandler()

	body := `{"name": "flour", "buying_price": 40, "selling_price": 55.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.CreateProduct(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var product domain.Product
	if err := json.NewDecoder(w.Body).Decode(&product); err != nil {
		t.Fatalf("failed to decode product: %v", err)
	}
	if product.ID == 0 || product.Name != "flour" || product.SellingPrice != 55.5 {
		t.Errorf("unexpected product %+v", product)
	}
	if len(productRepo.products) != 1 {
		t.Errorf("expected 1 stored product, got %d", len(productRepo.products))
	}
}

func TestCreateProductRejectsInvalidPayloads(t *testing.T) {
	handler, _ := newTestProductHandler()

	for _, body := range []string{
		`{"buying_price": 40, "selling_price": 55}`,
		`{"name": "flour", "selling_price": 55}`,
		`{"name": "flour", "buying_price": -1, "selling_price": 55}`,
		`{"name": "flour", "buying_price": "forty", "selling_price": 55}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.CreateProduct(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for body %s, got %d", body, w.Code)
		}
	}
}

func TestCreateProductAcceptsZeroPrices(t *testing.T) {
	handler, _ := newTestProductHandler()

	body := `{"name": "sample", "buying_price": 0, "selling_price": 0}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.CreateProduct(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected zero prices to be accepted, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListProductsReturnsCatalog(t *testing.T) {
	handler, productRepo := newTestProductHandler()
	productRepo.Create(context.Background(), &domain.Product{Name: "flour", BuyingPrice: 40, SellingPrice: 55})
	productRepo.Create(context.Background(), &domain.Product{Name: "sugar", BuyingPrice: 80, SellingPrice: 95})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()

	handler.ListProducts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var products []*domain.Product
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode products: %v", err)
	}
	if len(products) != 2 || products[1].Name != "sugar" {
		t.Errorf("unexpected catalog %+v", products)
	}
}
