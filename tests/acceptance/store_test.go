package acceptance

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/shopspring/decimal"
)

func orderFor(total string, lines ...dto.CartLineRequest) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		Cart:  lines,
		Total: ptr(decimal.RequireFromString(total)),
		Shipping: dto.ShippingRequest{
			Address: "Av. Larco 123",
			City:    "Lima",
			Postal:  "15074",
		},
	}
}

func lineFor(p *domain.Product, quantity int) dto.CartLineRequest {
	return dto.CartLineRequest{ID: p.ID, Title: p.Title, Price: p.Price, Quantity: quantity}
}

func (s *Suite) TestCatalogBrowsing() {
	milk := s.addProduct("Leche", "Lácteos", "3.90", 10)
	s.addProduct("Manzana", "Frutas", "6.90", 10)
	s.addProduct("Pera", "Frutas", "5.50", 10)

	anonymous := s.newClient()

	var all []*domain.Product
	s.Require().Equal(http.StatusOK, anonymous.do(http.MethodGet, "/api/products", nil, &all))
	s.Len(all, 3)

	var fruit []*domain.Product
	s.Require().Equal(http.StatusOK, anonymous.do(http.MethodGet, "/api/products?category=Frutas", nil, &fruit))
	s.Require().Len(fruit, 2)
	s.Equal("Pera", fruit[0].Title, "newest first")

	var categories []string
	s.Require().Equal(http.StatusOK, anonymous.do(http.MethodGet, "/api/products/categories", nil, &categories))
	s.Equal([]string{"Frutas", "Lácteos"}, categories)

	var got domain.Product
	s.Require().Equal(http.StatusOK, anonymous.do(http.MethodGet, "/api/products/"+milk.ID, nil, &got))
	s.True(decimal.RequireFromString("3.90").Equal(got.Price))

	s.Equal(http.StatusNotFound, anonymous.do(http.MethodGet, "/api/products/6c2f1a7e-0000-4000-8000-000000000000", nil, nil))
}

func (s *Suite) TestCatalogManagementIsRoleGated() {
	milk := s.addProduct("Leche", "Lácteos", "3.90", 10)

	shopper := s.newClient()
	shopper.register("Ana Torres", "ana@gmail.com", "secret123")
	assistant := s.staff("staff@gmail.com", domain.RoleAssistant)

	update := dto.UpdateProductRequest{Stock: ptr(25)}
	s.Equal(http.StatusForbidden, shopper.do(http.MethodPut, "/api/products/"+milk.ID, update, nil))

	var updated domain.Product
	s.Require().Equal(http.StatusOK, assistant.do(http.MethodPut, "/api/products/"+milk.ID, update, &updated))
	s.Equal(25, updated.Stock)
	s.Equal("Leche", updated.Title)

	// The listing cache must not serve the old stock.
	var listed []*domain.Product
	s.Require().Equal(http.StatusOK, shopper.do(http.MethodGet, "/api/products", nil, &listed))
	s.Require().Len(listed, 1)
	s.Equal(25, listed[0].Stock)

	s.Require().Equal(http.StatusOK, assistant.do(http.MethodDelete, "/api/products/"+milk.ID, nil, nil))
	s.Equal(http.StatusNotFound, assistant.do(http.MethodDelete, "/api/products/"+milk.ID, nil, nil))
}

func (s *Suite) TestCheckout() {
	milk := s.addProduct("Leche", "Lácteos", "3.90", 5)
	bread := s.addProduct("Pan", "Panadería", "3.00", 5)

	c := s.newClient()
	c.register("Ana Torres", "ana@gmail.com", "secret123")

	var created dto.OrderCreatedResponse
	status := c.do(http.MethodPost, "/api/orders", orderFor("10.80", lineFor(milk, 2), lineFor(bread, 1)), &created)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal("order created", created.Message)
	s.Equal("ana@gmail.com", created.Order.UserEmail)
	s.True(decimal.RequireFromString("10.80").Equal(created.Order.Total))

	s.Equal(3, s.stockOf(milk.ID))
	s.Equal(4, s.stockOf(bread.ID))

	var mine []*domain.Order
	s.Require().Equal(http.StatusOK, c.do(http.MethodGet, "/api/orders/my-orders", nil, &mine))
	s.Require().Len(mine, 1)
	s.Len(mine[0].Cart, 2)
}

func (s *Suite) TestCheckoutInsufficientStockChangesNothing() {
	milk := s.addProduct("Leche", "Lácteos", "3.90", 5)
	eggs := s.addProduct("Huevos", "Proteínas", "11.90", 1)

	c := s.newClient()
	c.register("Ana Torres", "ana@gmail.com", "secret123")

	var errResp dto.ErrorResponse
	status := c.do(http.MethodPost, "/api/orders", orderFor("31.60", lineFor(milk, 1), lineFor(eggs, 2)), &errResp)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("insufficient stock for Huevos", errResp.Error)

	s.Equal(5, s.stockOf(milk.ID))
	s.Equal(1, s.stockOf(eggs.ID))

	var mine []*domain.Order
	s.Require().Equal(http.StatusOK, c.do(http.MethodGet, "/api/orders/my-orders", nil, &mine))
	s.Empty(mine)
}

func (s *Suite) TestConcurrentCheckoutSellsLastUnitOnce() {
	eggs := s.addProduct("Huevos", "Proteínas", "11.90", 1)

	const buyers = 8
	clients := make([]*client, buyers)
	for i := range clients {
		clients[i] = s.newClient()
		clients[i].register("Buyer", fmt.Sprintf("buyer%d@gmail.com", i), "secret123")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for _, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := c.do(http.MethodPost, "/api/orders", orderFor("11.90", lineFor(eggs, 1)), nil)
			mu.Lock()
			statuses[status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Equal(1, statuses[http.StatusCreated])
	s.Equal(buyers-1, statuses[http.StatusBadRequest])
	s.Equal(0, s.stockOf(eggs.ID))
}

func (s *Suite) TestReduceStock() {
	milk := s.addProduct("Leche", "Lácteos", "3.90", 5)

	c := s.newClient()
	c.register("Ana Torres", "ana@gmail.com", "secret123")

	req := dto.ReduceStockRequest{Cart: []dto.CartLineRequest{lineFor(milk, 2)}}
	s.Require().Equal(http.StatusOK, c.do(http.MethodPost, "/api/products/reduce-stock", req, nil))
	s.Equal(3, s.stockOf(milk.ID))

	req.Cart[0].Quantity = 4
	s.Equal(http.StatusBadRequest, c.do(http.MethodPost, "/api/products/reduce-stock", req, nil))
	s.Equal(3, s.stockOf(milk.ID))
}

func (s *Suite) TestOrderScopeAndDeletion() {
	milk := s.addProduct("Leche", "Lácteos", "3.90", 10)

	ana := s.newClient()
	ana.register("Ana Torres", "ana@gmail.com", "secret123")
	luis := s.newClient()
	luis.register("Luis Rojas", "luis@gmail.com", "secret123")
	admin := s.staff("admin@gmail.com", domain.RoleAdmin)

	var created dto.OrderCreatedResponse
	s.Require().Equal(http.StatusCreated, ana.do(http.MethodPost, "/api/orders", orderFor("3.90", lineFor(milk, 1)), &created))
	s.Require().Equal(http.StatusCreated, luis.do(http.MethodPost, "/api/orders", orderFor("3.90", lineFor(milk, 1)), nil))

	var orders []*domain.Order
	s.Require().Equal(http.StatusOK, ana.do(http.MethodGet, "/api/orders", nil, &orders))
	s.Len(orders, 1)
	s.Require().Equal(http.StatusOK, admin.do(http.MethodGet, "/api/orders", nil, &orders))
	s.Len(orders, 2)

	s.Equal(http.StatusForbidden, ana.do(http.MethodDelete, "/api/orders/"+created.Order.ID, nil, nil))
	s.Equal(http.StatusBadRequest, admin.do(http.MethodDelete, "/api/orders/not-a-uuid", nil, nil))
	s.Require().Equal(http.StatusOK, admin.do(http.MethodDelete, "/api/orders/"+created.Order.ID, nil, nil))
	s.Equal(http.StatusNotFound, admin.do(http.MethodDelete, "/api/orders/"+created.Order.ID, nil, nil))
}

func (s *Suite) TestDeleteAccountCascadesOrders() {
	milk := s.addProduct("Leche", "Lácteos", "3.90", 10)

	ana := s.newClient()
	ana.register("Ana Torres", "ana@gmail.com", "secret123")
	luis := s.newClient()
	luis.register("Luis Rojas", "luis@gmail.com", "secret123")

	for _, c := range []*client{ana, ana, luis} {
		s.Require().Equal(http.StatusCreated, c.do(http.MethodPost, "/api/orders", orderFor("3.90", lineFor(milk, 1)), nil))
	}

	s.Require().Equal(http.StatusOK, ana.do(http.MethodDelete, "/api/auth/delete-account", nil, nil))

	var remaining int
	s.Require().NoError(s.Postgres.DB.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&remaining))
	s.Equal(1, remaining)

	s.Equal(http.StatusUnauthorized, ana.do(http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Email: "ana@gmail.com", Password: "secret123"}, nil))
}
