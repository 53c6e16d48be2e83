package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"taskmaster/internal/handler"
	"taskmaster/pkg/rbac"
)

// ReadyCheck is one dependency checked by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Board          *handler.BoardHandler
	Dashboard      *handler.DashboardHandler
	Checks         []ReadyCheck
	AllowedOrigins []string
	Logger         *zap.Logger
	Now            func() time.Time
}

type Router struct {
	Engine  *gin.Engine
	handler http.Handler
}

func NewRouter(d Deps) *Router {
	if d.Now == nil {
		d.Now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(d.Logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for _, check := range d.Checks {
			if err := check.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": check.Name + "_not_ready", "error": err.Error()})
				return
			}
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Public
	api.GET("/public/dashboard/:shareId", d.Dashboard.PublicDashboard)

	// Protected
	auth := api.Group("/")
	auth.Use(AuthMiddleware(d.Now))
	{
		read := rbac.PermissionReadDashboard
		auth.GET("/dashboard", RequirePermission(read), d.Dashboard.GetDashboard)
		auth.GET("/dashboard/overview", RequirePermission(read), d.Dashboard.GetOverview)
		auth.POST("/dashboard/share", RequirePermission(rbac.PermissionShare), d.Dashboard.Share)
		auth.POST("/dashboard/refresh-shared", RequirePermission(rbac.PermissionShare), d.Dashboard.RefreshShared)

		// Board endpoints
		auth.GET("/board", RequirePermission(rbac.PermissionReadBoard), d.Board.GetBoard)
		auth.POST("/board/reload", RequirePermission(rbac.PermissionReadBoard), d.Board.Reload)
		auth.GET("/board/failed-writes", RequirePermission(rbac.PermissionReadFailedWrites), d.Board.FailedWrites)

		write := auth.Group("/board/tasks")
		write.Use(RequirePermission(rbac.PermissionWriteBoard))
		write.POST("", d.Board.CreateTask)
		write.DELETE("/:id", d.Board.DeleteTask)
		write.POST("/:id/move", d.Board.MoveTask)
		write.PATCH("/:id/title", d.Board.RenameTask)
		write.PATCH("/:id/priority", d.Board.ChangePriority)
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", UserIDHeader, "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	return &Router{Engine: r, handler: c.Handler(r)}
}

// Handler is the engine wrapped with CORS.
func (r *Router) Handler() http.Handler {
	return r.handler
}

func (r *Router) Run(port string) error {
	return http.ListenAndServe(port, r.handler)
}
