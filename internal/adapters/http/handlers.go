package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/livecast-dev/livecast/internal/auth"
	"github.com/livecast-dev/livecast/internal/domain"
	"github.com/livecast-dev/livecast/internal/store"
)

// Handlers serves the REST surface: accounts, stream metadata, ICE config.
// Store repos may be nil when the server runs without a database; the
// affected endpoints answer 503 then.
type Handlers struct {
	Users    *store.UserRepo
	Streams  *store.StreamRepo
	DB       *store.DB
	Tokens   *auth.Tokens
	TokenTTL time.Duration
	ICEURLs  []string
}

type registerRequest struct {
	Username string `json:"username" binding:"required,max=36"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Users == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hashing failed"})
		return
	}
	user, err := domain.NewUser(req.Username, req.Email, hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "registration failed"})
		return
	}

	token, err := h.Tokens.Issue(string(user.ID), h.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Users == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error().Err(err).Str("module", "adapters.http").Msg("get user")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.Tokens.Issue(string(user.ID), h.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// bearerUserID authenticates the request's Bearer token and resolves the
// calling user. On failure it has already written the 401 response.
func (h *Handlers) bearerUserID(c *gin.Context) (domain.UserID, bool) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, prefix) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return "", false
	}
	sub, err := h.Tokens.Verify(strings.TrimPrefix(header, prefix))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return "", false
	}
	return domain.UserID(sub), true
}

type createStreamRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *Handlers) CreateStream(c *gin.Context) {
	var req createStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	streamer, ok := h.bearerUserID(c)
	if !ok {
		return
	}
	if h.Streams == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}
	rec, err := h.Streams.Create(c.Request.Context(), req.Title, req.Description, streamer)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create stream record")
		c.JSON(http.StatusBadRequest, gin.H{"error": "stream creation failed"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// EndStream takes a stream record off the live listing. Only the token's
// user may end their own stream; anyone else sees not found.
func (h *Handlers) EndStream(c *gin.Context) {
	streamer, ok := h.bearerUserID(c)
	if !ok {
		return
	}
	if h.Streams == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}
	id := domain.RecordID(c.Param("id"))
	if err := h.Streams.MarkEnded(c.Request.Context(), id, streamer); err != nil {
		if errors.Is(err, store.ErrStreamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "stream not found"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("mark stream ended")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ending failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (h *Handlers) ListStreams(c *gin.Context) {
	if h.Streams == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}
	recs, err := h.Streams.ListLive(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list live streams")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// ICEServers hands clients the STUN/TURN set to build their RTCPeerConnection.
func (h *Handlers) ICEServers(c *gin.Context) {
	cfg := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: h.ICEURLs},
		},
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": cfg.ICEServers})
}

func (h *Handlers) Health(c *gin.Context) {
	if h.DB != nil {
		if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
