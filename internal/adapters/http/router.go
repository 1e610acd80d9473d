package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/adapters/signal"
	"github.com/lectio/collab/internal/app"
	"github.com/lectio/collab/internal/config"
	"github.com/lectio/collab/internal/domain"
	"github.com/lectio/collab/internal/store"
)

const (
	headerUserID   = "X-User-Id"
	headerUserName = "X-User-Name"
	headerUserRole = "X-User-Role"
)

// IdentityMiddleware attaches the authenticated (userId, userName, role)
// triple to the request. The triple comes from trusted upstream headers set
// by the auth layer; the core never validates credentials. Without headers
// (dev mode) a guest identity is minted and kept in the cookie session so
// reloads keep the same guest.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(headerUserID); id != "" {
			role := domain.Role(c.GetHeader(headerUserRole))
			if !role.Valid() {
				role = domain.RoleStudent
			}
			name := c.GetHeader(headerUserName)
			if name == "" {
				name = id
			}
			c.Set("identity", domain.User{ID: domain.UserID(id), Name: name, Role: role})
			c.Next()
			return
		}

		sess := sessions.Default(c)
		guestID, _ := sess.Get("guest_id").(string)
		if guestID == "" {
			guestID = uuid.NewString()
			sess.Set("guest_id", guestID)
			if err := sess.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save guest session")
			}
		}
		c.Set("identity", domain.User{
			ID:   domain.UserID(guestID),
			Name: "guest-" + guestID[:8],
			Role: domain.RoleStudent,
		})
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, svc *app.Service, st store.Store) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookies := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CollabSessions", cookies))
	r.Use(IdentityMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")

	ctrl := signal.NewController(svc, cfg)

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": svc.Rooms.List()})
	})
	api.GET("/rooms/:room/messages", func(c *gin.Context) {
		roomID, err := domain.ParseRoomID(c.Param("room"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		limit := cfg.HistoryLimit
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= cfg.HistoryLimit {
				limit = n
			}
		}
		msgs, err := st.Recent(c.Request.Context(), roomID, limit)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("load history")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	})
	api.GET("/ws", func(c *gin.Context) {
		ctrl.Handle(ctx, c)
	})

	return r
}
