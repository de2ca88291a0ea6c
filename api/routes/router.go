package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olashile-studio/gallery-backend/api/controllers"
	"github.com/olashile-studio/gallery-backend/api/middleware"
	"github.com/olashile-studio/gallery-backend/internal/cart"
	checkoutsvc "github.com/olashile-studio/gallery-backend/internal/checkout"
	"github.com/olashile-studio/gallery-backend/internal/orders"
	"github.com/olashile-studio/gallery-backend/pkg/config"
	"github.com/olashile-studio/gallery-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	engine *cart.Engine,
	checkoutService *checkoutsvc.Service,
	pendingStore *orders.PendingStore,
	confirmFlow *orders.Flow,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Get("/health", controllers.Health())
	r.Handle("/metrics", promhttp.Handler())

	// Storefront contract routes. Paths and payload shapes are fixed; the
	// deployed frontend calls them verbatim.
	r.Post("/create-checkout-session", controllers.CreateCheckoutSession(checkoutService, pendingStore, logg))
	r.Get("/verify-payment", controllers.VerifyPayment(checkoutService, logg))
	r.Post("/send-receipt", controllers.SendReceipt(confirmFlow, logg))
	r.Post("/confirm-order", controllers.ConfirmOrder(confirmFlow, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts())
		r.Get("/products/{id}/stock", controllers.ProductStock(engine, logg))

		r.Route("/cart/{cartID}", func(r chi.Router) {
			r.Get("/", controllers.GetCart(engine, logg))
			r.Delete("/", controllers.ClearCart(engine, logg))
			r.Post("/items", controllers.AddCartItem(engine, logg))
			r.Patch("/items/{key}", controllers.UpdateCartItem(engine, logg))
			r.Delete("/items/{key}", controllers.RemoveCartItem(engine, logg))
		})
	})

	if cfg.App.IsProd() {
		mountStatic(r, cfg.App.StaticDir)
	}

	return r
}

// mountStatic serves the built frontend with an index fallback, so client-side
// routes resolve after a hard refresh.
func mountStatic(r chi.Router, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	fs := http.FileServer(http.Dir(dir))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api") {
			http.NotFound(w, req)
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+req.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, req)
			return
		}
		http.ServeFile(w, req, index)
	})
}
