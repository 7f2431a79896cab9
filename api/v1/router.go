package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"certchain/api/v1/admins"
	"certchain/api/v1/auth"
	"certchain/api/v1/certificates"
	"certchain/api/v1/middleware"
	"certchain/api/v1/transactions"
	"certchain/api/v1/txrun"
	"certchain/api/v1/wallet"
	"certchain/internal/chain"
	"certchain/internal/config"
	"certchain/internal/httpx"
)

// Verifier serves public certificate and admin lookups
type Verifier interface {
	certificates.Verifier
	admins.Checker
}

// Sessions exposes the wallet session manager
type Sessions interface {
	txrun.SessionSource
	wallet.Sessions
}

// Journal persists and serves pipeline runs
type Journal interface {
	txrun.Journal
	transactions.Store
}

// Deps holds everything the API needs. Journal may be nil, which disables
// the transaction routes.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Network  chain.NetworkStatus
	Verifier Verifier
	Sessions Sessions
	Pipeline txrun.Submitter
	Journal  Journal
	Logger   *logrus.Entry
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, deps *Deps) {
	// A nil Journal must stay a nil interface inside the runner
	var journal txrun.Journal
	if deps.Journal != nil {
		journal = deps.Journal
	}
	runner := txrun.NewRunner(deps.Sessions, deps.Pipeline, journal, deps.Logger)

	certHandler := certificates.NewHandler(deps.Verifier, runner)
	adminHandler := admins.NewHandler(deps.Verifier, deps.Sessions, runner)
	walletHandler := wallet.NewHandler(deps.Sessions)

	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)
		v1.GET("/network", networkHandler(deps.Network))
		v1.GET("/certificates/:id", certHandler.Verify)
		v1.GET("/certificates/:id/history", certHandler.History)
		v1.GET("/admins/:address", adminHandler.Check)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(deps.DB, deps.Config))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)
			protected.GET("/admins/info", adminHandler.Info)

			walletGroup := protected.Group("/wallet")
			{
				walletGroup.GET("", walletHandler.Status)
				walletGroup.POST("/connect", walletHandler.Connect)
				walletGroup.POST("/disconnect", walletHandler.Disconnect)
			}

			if deps.Journal != nil {
				txHandler := transactions.NewHandler(deps.Journal)
				txGroup := protected.Group("/transactions")
				{
					txGroup.GET("", txHandler.List)
					txGroup.GET("/:opId", txHandler.Get)
				}
			}

			// Contract writes
			writes := protected.Group("")
			writes.Use(middleware.WriteRequired())
			{
				writes.POST("/certificates/issue", certHandler.Issue)
				writes.POST("/certificates/revoke", certHandler.Revoke)
				writes.POST("/admins/add", adminHandler.Add)
				writes.POST("/admins/remove", adminHandler.Remove)
			}
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// networkHandler reports the read-side status found at startup
func networkHandler(status chain.NetworkStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		httpx.OKMsg(c, status.Message, status)
	}
}

// meHandler returns current operator information
func meHandler(c *gin.Context) {
	uid, _ := c.Get("uid")
	username, _ := c.Get("username")
	role, _ := c.Get("role")

	httpx.OK(c, gin.H{
		"uid":      uid,
		"username": username,
		"role":     role,
	})
}
