package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/api/handler"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/api/middleware"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/pkg/ids"

	_ "github.com/AgongaAlpha/vanguardescrow-api/docs"
)

// Deps are the services and probes the router dispatches to.
type Deps struct {
	Auth     ports.AuthService
	Sessions ports.Authenticator
	Escrows  ports.EscrowService
	Sellers  ports.SellerService
	Payments ports.PaymentMethodService
	Checks   map[string]handler.Checker

	BodyLimit          string
	MaxAttachmentBytes int

	// ServeDocs mounts the swagger UI under /swagger/.
	ServeDocs bool

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: ids.NewRequestID}))
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("escrow"))
	if d.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(d.BodyLimit))
	}

	authHandler := handler.NewAuthHandler(d.Auth)
	escrowHandler := handler.NewEscrowHandler(d.Escrows, d.MaxAttachmentBytes)
	sellerHandler := handler.NewSellerHandler(d.Sellers, d.MaxAttachmentBytes)
	paymentHandler := handler.NewPaymentHandler(d.Payments)
	healthHandler := handler.NewHealthHandler(d.Checks)

	// --- Public routes ---
	e.POST("/signup", authHandler.Signup)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout) // bearer header only; no live session required
	e.GET("/paymentMethods", paymentHandler.List)

	auth := middleware.Auth(d.Sessions)
	anyParty := []echo.MiddlewareFunc{auth, middleware.RBAC(domain.RoleBuyer, domain.RoleSeller)}
	buyerOnly := []echo.MiddlewareFunc{auth, middleware.RBAC(domain.RoleBuyer)}
	sellerOnly := []echo.MiddlewareFunc{auth, middleware.RBAC(domain.RoleSeller)}

	// --- Either party ---
	e.GET("/getEscrow", escrowHandler.GetEscrow, anyParty...)
	e.GET("/escrowTransactions", escrowHandler.Transactions, anyParty...)

	// --- Buyer routes ---
	e.POST("/createEscrow", escrowHandler.CreateEscrow, buyerOnly...)
	e.GET("/depositAddress", escrowHandler.DepositAddress, buyerOnly...)
	e.POST("/depositDone", escrowHandler.DepositDone, buyerOnly...)
	e.POST("/markPaid", escrowHandler.MarkPaid, buyerOnly...)
	e.POST("/releaseFunds", escrowHandler.ReleaseFunds, buyerOnly...)
	e.GET("/getCredentials", escrowHandler.Credentials, buyerOnly...)

	// --- Seller routes ---
	e.POST("/sellerConfirm", escrowHandler.SellerConfirm, sellerOnly...)
	e.POST("/sellerReject", escrowHandler.SellerReject, sellerOnly...)
	e.POST("/sellerSubmitDelivery", escrowHandler.SellerSubmitDelivery, sellerOnly...)
	e.POST("/sellerRequestRelease", escrowHandler.SellerRequestRelease, sellerOnly...)
	e.GET("/sellerMyEscrows", escrowHandler.SellerMyEscrows, sellerOnly...)
	e.GET("/sellerEscrows", escrowHandler.SellerEscrows, sellerOnly...)
	e.POST("/sellerUploadKYC", sellerHandler.UploadKYC, sellerOnly...)
	e.GET("/sellerKYCStatus", sellerHandler.KYCStatus, sellerOnly...)
	e.POST("/setWithdrawalMethod", sellerHandler.SetWithdrawalMethod, sellerOnly...)
	e.GET("/getWithdrawalMethod", sellerHandler.WithdrawalMethod, sellerOnly...)

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	if d.ServeDocs {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
