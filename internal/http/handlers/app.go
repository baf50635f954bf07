package handlers

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IngKendrys/scrap-backend/internal/config"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/metrics"
)

// NewApp builds the fiber app with middleware and every route.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "scrap-backend",
		ErrorHandler: ErrorHandler,
		BodyLimit:    cfg.MaxBodyBytes,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(observe)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/media/") || p == "/metrics" || p == "/healthz"
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/media/*", media(cfg.MediaDir))

	api := app.Group("/api", Authenticate(d.AuthService))

	// ---------- Identities ----------
	users := api.Group("/usuarios")
	users.Post("/registro", d.AuthHandler.Register)
	users.Post("/login", limiter.New(limiter.Config{
		Max:        cfg.LoginRateMax,
		Expiration: cfg.LoginRateWindow,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Demasiados intentos. Inténtelo más tarde."})
		},
	}), d.AuthHandler.Login)
	users.Post("/logout", d.AuthHandler.Logout)
	users.Get("/perfil", d.UserHandler.Profile)
	users.Put("/perfil", d.UserHandler.UpdateSelf)
	users.Patch("/perfil", d.UserHandler.UpdateSelf)
	users.Put("/actualizar/:pk<int>", d.UserHandler.Update)
	users.Patch("/actualizar/:pk<int>", d.UserHandler.Update)
	users.Patch("/estado/:pk<int>", d.UserHandler.ToggleActive)
	users.Get("/", d.UserHandler.List)

	// ---------- Catalog ----------
	prods := api.Group("/productos")
	prods.Get("/categorias", d.CategoryHandler.List)
	prods.Post("/categorias", d.CategoryHandler.Create)
	prods.Get("/categorias/:id<int>", d.CategoryHandler.Get)
	prods.Put("/categorias/:id<int>", d.CategoryHandler.Update)
	prods.Patch("/categorias/:id<int>", d.CategoryHandler.Update)
	prods.Delete("/categorias/:id<int>", d.CategoryHandler.Delete)

	prods.Post("/crear", d.ProductHandler.Create)
	prods.Get("/mis-productos", d.ProductHandler.Mine)
	prods.Get("/categoria/:id<int>", d.ProductHandler.ByCategory)
	prods.Get("/estado/:estado", d.ProductHandler.ByCondition)
	prods.Get("/vendidos", d.ProductHandler.Sold)
	prods.Get("/disponibles", d.ProductHandler.Available)
	prods.Get("/:id<int>", d.ProductHandler.Detail)
	prods.Put("/:id<int>/editar", d.ProductHandler.Update)
	prods.Patch("/:id<int>/editar", d.ProductHandler.Update)
	prods.Delete("/:id<int>/eliminar", d.ProductHandler.Delete)
	prods.Post("/:id<int>/marcar-vendido", d.ProductHandler.SetSold)
	prods.Patch("/:id<int>/marcar-vendido", d.ProductHandler.SetSold)

	prods.Post("/imagenes/crear", d.ImageHandler.Create)
	prods.Delete("/imagenes/:id<int>/eliminar", d.ImageHandler.Delete)

	return app
}

// observe records request count and latency by route pattern.
func observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		if ferr, ok := err.(*fiber.Error); ok {
			status = ferr.Code
		}
	}
	route := c.Route().Path
	labels := []string{c.Method(), route, strconv.Itoa(status)}
	metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	return err
}

// media serves stored images from dir, refusing anything that could step
// outside it.
func media(dir string) fiber.Handler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}
