package server

import (
	"errors"
	"sync"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/sessions"
	"go.uber.org/zap"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/auth"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/cart"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/remote"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/service"
)

// API exposes the coordinators to the UI layer over a local HTTP surface.
// Carts live in memory keyed by iris session id; they die with the
// process, which is exactly the cart contract.
type API struct {
	catalog  *service.CatalogService
	orders   *service.OrderService
	tokens   *auth.TokenProvider
	monitor  *service.Monitor
	sessions *sessions.Sessions
	log      *zap.Logger

	mu    sync.Mutex
	carts map[string]*cart.Cart
}

// New builds the API surface.
func New(
	catalog *service.CatalogService,
	orders *service.OrderService,
	tokens *auth.TokenProvider,
	monitor *service.Monitor,
	log *zap.Logger,
) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		catalog: catalog,
		orders:  orders,
		tokens:  tokens,
		monitor: monitor,
		sessions: sessions.New(sessions.Config{
			Cookie:  "crunchyrolls_session",
			Expires: 24 * time.Hour,
		}),
		log:   log,
		carts: make(map[string]*cart.Cart),
	}
}

func (a *API) sessionCart(ctx iris.Context) *cart.Cart {
	id := a.sessions.Start(ctx).ID()
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.carts[id]
	if !ok {
		c = cart.New()
		a.carts[id] = c
	}
	return c
}

func fail(ctx iris.Context, err error) {
	switch {
	case service.IsValidation(err):
		ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
	case errors.Is(err, remote.ErrUnauthorized):
		ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "session expired, sign in again"})
	case errors.Is(err, service.ErrOrderNotFound):
		ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "order not found"})
	default:
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
	}
}

func ok(ctx iris.Context, data any) {
	ctx.JSON(iris.Map{"code": 0, "data": data})
}

func okFrom(ctx iris.Context, data any, origin service.Origin) {
	ctx.JSON(iris.Map{"code": 0, "source": origin.String(), "data": data})
}

// Register mounts all routes on app.
func (a *API) Register(app *iris.Application) {
	api := app.Party("/api")

	api.Get("/health", func(ctx iris.Context) {
		ok(ctx, iris.Map{"status": "ok"})
	})

	api.Get("/stats", func(ctx iris.Context) {
		ok(ctx, a.monitor.Stats())
	})

	// The UI hands over the bearer credential obtained from its login flow.
	api.Post("/session/token", func(ctx iris.Context) {
		var req struct {
			Token string `json:"token"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		a.tokens.Set(req.Token)
		ok(ctx, iris.Map{})
	})
	api.Delete("/session/token", func(ctx iris.Context) {
		a.tokens.Clear()
		ok(ctx, iris.Map{})
	})

	a.registerCatalog(api)
	a.registerCart(api)
	a.registerOrders(api)
}

func (a *API) registerCatalog(api iris.Party) {
	api.Get("/categories", func(ctx iris.Context) {
		force, _ := ctx.URLParamBool("force")
		list, origin, err := a.catalog.GetCategories(ctx.Request().Context(), force)
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/categories/search", func(ctx iris.Context) {
		list, origin, err := a.catalog.SearchCategories(ctx.Request().Context(), ctx.URLParam("name"))
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/categories/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		c, origin, err := a.catalog.GetCategoryByID(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		if c == nil {
			ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "category not found"})
			return
		}
		okFrom(ctx, c, origin)
	})

	api.Get("/products", func(ctx iris.Context) {
		force, _ := ctx.URLParamBool("force")
		list, origin, err := a.catalog.GetProducts(ctx.Request().Context(), force)
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/products/search", func(ctx iris.Context) {
		list, origin, err := a.catalog.SearchProducts(ctx.Request().Context(), ctx.URLParam("term"))
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/products/instock", func(ctx iris.Context) {
		list, origin, err := a.catalog.GetInStockProducts(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/products/category/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		list, origin, err := a.catalog.GetProductsByCategory(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, origin, err := a.catalog.GetProductByID(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		if p == nil {
			ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "product not found"})
			return
		}
		okFrom(ctx, p, origin)
	})
}

func cartView(c *cart.Cart) iris.Map {
	return iris.Map{
		"items":     c.Items(),
		"total":     c.Total(),
		"itemCount": c.ItemCount(),
	}
}

func (a *API) registerCart(api iris.Party) {
	api.Get("/cart", func(ctx iris.Context) {
		ok(ctx, cartView(a.sessionCart(ctx)))
	})

	api.Post("/cart/items", func(ctx iris.Context) {
		var req struct {
			ProductID int64 `json:"productId"`
			Quantity  int   `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if req.Quantity <= 0 {
			req.Quantity = 1
		}
		p, _, err := a.catalog.GetProductByID(ctx.Request().Context(), req.ProductID)
		if err != nil {
			fail(ctx, err)
			return
		}
		if p == nil {
			ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "product not found"})
			return
		}
		c := a.sessionCart(ctx)
		c.Add(p, req.Quantity)
		ok(ctx, cartView(c))
	})

	api.Put("/cart/items/{productId:int64}", func(ctx iris.Context) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		productID, _ := ctx.Params().GetInt64("productId")
		c := a.sessionCart(ctx)
		c.SetQuantity(productID, req.Quantity)
		ok(ctx, cartView(c))
	})

	api.Delete("/cart/items/{productId:int64}", func(ctx iris.Context) {
		productID, _ := ctx.Params().GetInt64("productId")
		c := a.sessionCart(ctx)
		c.Remove(productID)
		ok(ctx, cartView(c))
	})
}

func orderStatus(s string) order.Status {
	return order.Status(s)
}

type orderView struct {
	Order       any     `json:"order"`
	TotalAmount float64 `json:"totalAmount"`
	SyncState   string  `json:"syncState"`
}

func (a *API) registerOrders(api iris.Party) {
	api.Post("/orders", func(ctx iris.Context) {
		var req struct {
			CustomerName    string `json:"customerName"`
			CustomerEmail   string `json:"customerEmail"`
			DeliveryAddress string `json:"deliveryAddress"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		c := a.sessionCart(ctx)
		o, err := a.orders.CreateOrder(ctx.Request().Context(), req.CustomerName, req.CustomerEmail, req.DeliveryAddress, c)
		if err != nil {
			fail(ctx, err)
			return
		}
		// Either branch is "order placed" to the customer.
		ok(ctx, orderView{Order: o, TotalAmount: o.TotalAmount(), SyncState: string(o.SyncState)})
	})

	api.Post("/orders/sync", func(ctx iris.Context) {
		synced, err := a.orders.SyncPendingOrders(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"synced": synced})
	})

	api.Get("/orders/history", func(ctx iris.Context) {
		list, origin, err := a.orders.GetOrderHistory(ctx.Request().Context(), ctx.URLParam("email"))
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/orders/recent", func(ctx iris.Context) {
		count := ctx.URLParamIntDefault("count", 20)
		list, origin, err := a.orders.ListRecentOrders(ctx.Request().Context(), count)
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/orders/status/{status}", func(ctx iris.Context) {
		status := ctx.Params().Get("status")
		list, origin, err := a.orders.ListOrdersByStatus(ctx.Request().Context(), orderStatus(status))
		if err != nil {
			fail(ctx, err)
			return
		}
		okFrom(ctx, list, origin)
	})

	api.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, origin, err := a.orders.GetOrderByID(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		if o == nil {
			ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "order not found"})
			return
		}
		okFrom(ctx, orderView{Order: o, TotalAmount: o.TotalAmount(), SyncState: string(o.SyncState)}, origin)
	})

	api.Put("/orders/{id:int64}/status", func(ctx iris.Context) {
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		id, _ := ctx.Params().GetInt64("id")
		if err := a.orders.UpdateOrderStatus(ctx.Request().Context(), id, orderStatus(req.Status)); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{})
	})

	api.Delete("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := a.orders.DeleteOrder(ctx.Request().Context(), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{})
	})
}
