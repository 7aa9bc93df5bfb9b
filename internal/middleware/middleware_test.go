package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"SeniorJunior-backend/internal/auth"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store/memstore"
	"SeniorJunior-backend/internal/utilities"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type authFixture struct {
	store     *memstore.Store
	tokens    *auth.JWTManager
	blacklist *auth.InMemoryBlacklistStore
	junior    *model.User
	senior    *model.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{store: memstore.New(), blacklist: auth.NewInMemoryBlacklistStore(0)}
	var err error
	f.tokens, err = auth.NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	f.junior = &model.User{ID: uuid.New(), Name: "Jun", Email: "jun@example.com", Role: model.RoleJunior, IsVerified: true}
	f.senior = &model.User{ID: uuid.New(), Name: "Sen", Email: "sen@example.com", Role: model.RoleSenior, IsVerified: true, ProjectsCompleted: 8}
	require.NoError(t, f.store.CreateUser(context.Background(), f.junior))
	require.NoError(t, f.store.CreateUser(context.Background(), f.senior))
	return f
}

func (f *authFixture) token(t *testing.T, u *model.User) string {
	t.Helper()
	token, err := f.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func (f *authFixture) engine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{RequireAuth(f.store, f.tokens, f.blacklist)}, handlers...)
	r.GET("/protected", chain...)
	return r
}

// signed builds a token by hand so tests can control expiry and issuer
func signed(t *testing.T, userID uuid.UUID, ttl time.Duration, issuer string) string {
	t.Helper()
	now := time.Now()
	claims := auth.Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func checkUserHandler(c *gin.Context) {
	u, exist := c.Get(utilities.UserKey)
	if !exist {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

func getCheckRoleHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Hello, " + user.Role})
}

func get(engine http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRequireAuth_Success(t *testing.T) {
	f := newAuthFixture(t)
	engine := f.engine(func(c *gin.Context) {
		claims, err := auth.ExtractClaims(c)
		require.NoError(t, err)
		assert.Equal(t, f.junior.ID.String(), claims.UserID)
		c.Next()
	}, checkUserHandler)

	rec, body := get(engine, "/protected", f.token(t, f.junior))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "jun@example.com", body["user"].(map[string]interface{})["email"])
}

func TestRequireAuth_NoHeader(t *testing.T) {
	f := newAuthFixture(t)
	rec, body := get(f.engine(checkUserHandler), "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "Invalid authorization header")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	rec, body := get(f.engine(checkUserHandler), "/protected", signed(t, f.junior.ID, -time.Minute, auth.JwtIssuer))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token expired", body["error"])
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	rec, body := get(f.engine(checkUserHandler), "/protected", f.token(t, f.junior)+"x")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "Failed to validate token")
}

func TestRequireAuth_InvalidIssuer(t *testing.T) {
	f := newAuthFixture(t)
	rec, body := get(f.engine(checkUserHandler), "/protected", signed(t, f.junior.ID, time.Hour, "invalid-issuer"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
	assert.Equal(t, "Invalid token issuer", body["error"])
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	rec, body := get(f.engine(checkUserHandler), "/protected", signed(t, uuid.New(), time.Hour, auth.JwtIssuer))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not exist", body["error"])
}

func TestRequireAuth_MalformedSubject(t *testing.T) {
	f := newAuthFixture(t)
	claims := auth.Claims{
		UserID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    auth.JwtIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, body := get(f.engine(checkUserHandler), "/protected", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "Invalid token subject")
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	f := newAuthFixture(t)
	token := f.token(t, f.junior)
	claims, err := f.tokens.Validate(token)
	require.NoError(t, err)
	require.NoError(t, f.blacklist.AddToBlacklist(context.Background(), claims.ID, claims.ExpiresAt.Time))

	rec, body := get(f.engine(checkUserHandler), "/protected", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been revoked", body["error"])

	// other tokens of the same user stay valid
	rec, _ = get(f.engine(checkUserHandler), "/protected", f.token(t, f.junior))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingBlacklist struct{}

func (failingBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return false, errors.New("redis down")
}

func (failingBlacklist) AddToBlacklist(ctx context.Context, jti string, exp time.Time) error {
	return nil
}

func TestRequireAuth_BlacklistUnavailable(t *testing.T) {
	f := newAuthFixture(t)
	r := gin.New()
	r.GET("/protected", RequireAuth(f.store, f.tokens, failingBlacklist{}), checkUserHandler)

	rec, _ := get(r, "/protected", f.token(t, f.junior))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckRole_NoRequireAuthBefore(t *testing.T) {
	engine := gin.New()
	engine.GET("/need-role", CheckRole(model.RoleJunior), getCheckRoleHandler)

	rec, body := get(engine, "/need-role", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, body["error"], "User information not provided")
}

func TestCheckRole_WrongRole(t *testing.T) {
	f := newAuthFixture(t)
	rec, body := get(f.engine(CheckRole(model.RoleSenior), getCheckRoleHandler), "/protected", f.token(t, f.junior))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied: senior account required", body["error"])
}

func TestRoleDeniedMessage(t *testing.T) {
	assert.Equal(t, "Access denied: junior or senior account required", RoleDeniedMessage(model.RoleJunior, model.RoleSenior))
}

func TestCheckRole_MultipleRoleCheck(t *testing.T) {
	f := newAuthFixture(t)
	engine := f.engine(CheckRole(model.RoleJunior, model.RoleSenior), getCheckRoleHandler)

	rec, body := get(engine, "/protected", f.token(t, f.junior))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, junior", body["message"])

	rec, body = get(engine, "/protected", f.token(t, f.senior))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, senior", body["message"])
}

func readFileHandler(c *gin.Context) {
	rawFile, err := c.FormFile("file")
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Entity too large"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot open file"})
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(io.Discard, f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot read file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sendFile(engine http.Handler, size int, chunked bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "blob.bin")
	_, _ = part.Write(bytes.Repeat([]byte{'a'}, size))
	_ = w.Close()

	var body io.Reader = &buf
	if chunked {
		// hide the length so the limit is enforced while reading
		body = io.MultiReader(&buf)
	}
	req, _ := http.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestSizeLimit(t *testing.T) {
	engine := gin.New()
	engine.POST("/upload", SizeLimit(1<<20, 1), readFileHandler)

	assert.Equal(t, http.StatusOK, sendFile(engine, 512<<10, false).Code)
	assert.Equal(t, http.StatusOK, sendFile(engine, 1<<20, false).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, sendFile(engine, 2<<20, false).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, sendFile(engine, 2<<20, true).Code)
}

func TestRateLimiterMiddleware(t *testing.T) {
	engine := gin.New()
	engine.GET("/limited", RateLimiterMiddleware(2, nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec, _ := get(engine, "/limited", "")
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	rec, body := get(engine, "/limited", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests. Please try again later.", body["error"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestSafeHeader(t *testing.T) {
	engine := gin.New()
	engine.Use(SafeHeader(HeaderPolicy{CachePrefixes: []string{"/uploads/"}}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/uploads/*filepath", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec, _ := get(engine, "/x", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec, _ = get(engine, "/uploads/resumes/1-cv.pdf", "")
	assert.Equal(t, "private, max-age=86400", rec.Header().Get("Cache-Control"))
}

func TestSafeHeader_HSTS(t *testing.T) {
	engine := gin.New()
	engine.GET("/x", SafeHeader(HeaderPolicy{HSTS: true}), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec, _ := get(engine, "/x", "")
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	engine := gin.New()
	engine.Use(RequestLogger(zap.New(core)))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	get(engine, "/ok", "")
	get(engine, "/boom", "")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
