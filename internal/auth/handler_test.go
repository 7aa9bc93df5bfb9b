package auth

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"SeniorJunior-backend/internal/mailer"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/otp"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/storage"
	"SeniorJunior-backend/internal/store/memstore"
	"SeniorJunior-backend/internal/testutil"
	"SeniorJunior-backend/internal/upload"
)

type authFixture struct {
	router *gin.Engine
	store  *memstore.Store
	mail   *mailer.Recorder
	tokens *JWTManager
	root   string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	f := &authFixture{store: memstore.New(), mail: &mailer.Recorder{}, root: t.TempDir()}

	var err error
	f.tokens, err = NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	disk, err := storage.NewDisk(f.root)
	require.NoError(t, err)
	uploads, err := upload.NewHandler(disk, upload.DefaultRules(1<<20), log)
	require.NoError(t, err)
	cleaner := service.NewFileCleaner(uploads, log, service.CleanerOptions{})

	audit, err := NewAuditLog(true, filepath.Join(t.TempDir(), "log", "auth.log"))
	require.NoError(t, err)

	authSvc := service.NewAuthService(service.Deps{
		Store:    f.store,
		Mailer:   f.mail,
		Tokens:   f.tokens,
		Throttle: otp.NewMemoryThrottle(5, time.Hour),
		Cleaner:  cleaner,
		Log:      log,
	})
	h := NewLocalAuthHandler(authSvc, uploads, cleaner, audit, log)

	// stands in for RequireAuth
	withUser := func(c *gin.Context) {
		claims, err := f.tokens.Validate(c.GetHeader("Authorization")[len("Bearer "):])
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		user, err := f.store.GetUserByID(c.Request.Context(), uuid.MustParse(claims.UserID))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("user", *user)
	}

	r := gin.New()
	r.POST("/auth/register", h.RegisterHandler)
	r.POST("/auth/resend-otp", h.ResendOTPHandler)
	r.POST("/auth/verify-email", h.VerifyEmailHandler)
	r.POST("/auth/login", h.LoginHandler)
	r.GET("/auth/profile", withUser, h.GetProfileHandler)
	r.PUT("/auth/profile", withUser, h.UpdateProfileHandler)
	r.POST("/auth/forgot-password", h.ForgotPasswordHandler)
	r.POST("/auth/reset-password", h.ResetPasswordHandler)
	f.router = r
	return f
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (f *authFixture) lastCode(t *testing.T) string {
	t.Helper()
	msg, ok := f.mail.Last()
	require.True(t, ok, "no mail sent")
	code := codePattern.FindString(msg.Body)
	require.NotEmpty(t, code)
	return code
}

func registerFields(email, role string, projects string) map[string]string {
	return map[string]string{
		"name":              "Ada",
		"email":             email,
		"password":          "password123",
		"userType":          role,
		"skills":            "go, sql ,",
		"projectsCompleted": projects,
	}
}

func (f *authFixture) registerAndVerify(t *testing.T, email string) string {
	t.Helper()
	rec, _ := testutil.MakeMultipartRequest(registerFields(email, model.RoleJunior, "0"), nil, "", f.router, "/auth/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := testutil.MakeJSONRequest(gin.H{"email": email, "otp": f.lastCode(t)}, "", f.router, "/auth/verify-email", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)
	return resp["token"].(string)
}

func TestRegisterHandler_SeniorWithFiles(t *testing.T) {
	f := newAuthFixture(t)

	files := []testutil.File{
		testutil.PDF("my cv.pdf"),
		testutil.PNG("me.png"),
	}
	rec, resp := testutil.MakeMultipartRequest(registerFields("Ada@Example.com", model.RoleSenior, "10"), files, "", f.router, "/auth/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code, resp)
	assert.Equal(t, service.MsgRegistered, resp["message"])

	user, err := f.store.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.Equal(t, []string{"go", "sql"}, []string(user.Skills))
	assert.Regexp(t, `^uploads/resumes/\d+-my_cv\.pdf$`, user.ResumePath)
	assert.Regexp(t, `^uploads/avatars/\d+-me\.png$`, user.ProfilePicturePath)

	msg, ok := f.mail.Last()
	require.True(t, ok)
	assert.Equal(t, mailer.SubjectVerify, msg.Subject)
}

func TestRegisterHandler_SeniorRequirement(t *testing.T) {
	f := newAuthFixture(t)

	rec, resp := testutil.MakeMultipartRequest(registerFields("s@example.com", model.RoleSenior, "3"), []testutil.File{testutil.PDF("cv.pdf")}, "", f.router, "/auth/register", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Seniors must have completed at least 6 projects.", resp["error"])

	_, err := f.store.GetUserByEmail(context.Background(), "s@example.com")
	assert.Error(t, err)

	// the refused request's résumé is deleted
	assert.Eventually(t, func() bool {
		entries, _ := os.ReadDir(filepath.Join(f.root, "resumes"))
		return len(entries) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRegisterHandler_RejectsWrongResumeType(t *testing.T) {
	f := newAuthFixture(t)

	bad := testutil.PNG("cv.png")
	bad.Field = "resume"
	rec, resp := testutil.MakeMultipartRequest(registerFields("j@example.com", model.RoleJunior, "0"), []testutil.File{bad}, "", f.router, "/auth/register", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, upload.MsgResumeType, resp["error"])
	assert.Empty(t, f.mail.Messages())
}

func TestVerifyAndLogin(t *testing.T) {
	f := newAuthFixture(t)

	rec, _ := testutil.MakeMultipartRequest(registerFields("j@example.com", model.RoleJunior, "0"), nil, "", f.router, "/auth/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "password": "password123"}, "", f.router, "/auth/login", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, service.ErrNotVerified.Message, resp["error"])

	code := f.lastCode(t)
	rec, resp = testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "otp": wrong(code)}, "", f.router, "/auth/verify-email", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired OTP.", resp["error"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "otp": code}, "", f.router, "/auth/verify-email", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, model.RoleJunior, resp["user"].(map[string]interface{})["userType"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "password": "wrong-password"}, "", f.router, "/auth/login", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", resp["error"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "password": "password123"}, "", f.router, "/auth/login", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)
	claims, err := f.tokens.Validate(resp["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "j@example.com", claims.Email)
}

func TestLoginHandler_MissingFields(t *testing.T) {
	f := newAuthFixture(t)
	rec, resp := testutil.MakeJSONRequest(gin.H{"email": "j@example.com"}, "", f.router, "/auth/login", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "Invalid request body")
}

func TestResendOTPHandler(t *testing.T) {
	f := newAuthFixture(t)

	rec, _ := testutil.MakeJSONRequest(gin.H{"email": "nobody@example.com"}, "", f.router, "/auth/resend-otp", http.MethodPost)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = testutil.MakeMultipartRequest(registerFields("j@example.com", model.RoleJunior, "0"), nil, "", f.router, "/auth/register", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := testutil.MakeJSONRequest(gin.H{"email": "j@example.com"}, "", f.router, "/auth/resend-otp", http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.MsgOTPResent, resp["message"])
	msg, _ := f.mail.Last()
	assert.Equal(t, mailer.SubjectResend, msg.Subject)
}

func TestProfileHandlers(t *testing.T) {
	f := newAuthFixture(t)
	token := f.registerAndVerify(t, "j@example.com")

	rec, resp := testutil.MakeJSONRequest(nil, token, f.router, "/auth/profile", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "j@example.com", resp["email"])
	assert.NotContains(t, resp, "password")

	picture := testutil.PNG("a.png")
	rec, resp = testutil.MakeMultipartRequest(map[string]string{"name": "Ada L", "experience": "", "projectsCompleted": "2"}, []testutil.File{picture}, token, f.router, "/auth/profile", http.MethodPut)
	require.Equal(t, http.StatusOK, rec.Code, resp)
	assert.Equal(t, service.MsgProfileUpdated, resp["message"])
	updated := resp["user"].(map[string]interface{})
	assert.Equal(t, "Ada L", updated["name"])
	assert.Equal(t, float64(2), updated["projectsCompleted"])
	assert.Regexp(t, `^uploads/avatars/`, updated["profilePicture"])

	rec, resp = testutil.MakeMultipartRequest(nil, []testutil.File{testutil.PDF("cv.pdf")}, token, f.router, "/auth/profile", http.MethodPut)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, upload.MsgInvalidField, resp["error"])

	rec, _ = testutil.MakeMultipartRequest(map[string]string{"projectsCompleted": "many"}, nil, token, f.router, "/auth/profile", http.MethodPut)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.registerAndVerify(t, "j@example.com")

	rec, resp := testutil.MakeJSONRequest(gin.H{"email": "ghost@example.com"}, "", f.router, "/auth/forgot-password", http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.MsgResetSent, resp["message"])
	sent := len(f.mail.Messages())

	rec, resp = testutil.MakeJSONRequest(gin.H{"email": "j@example.com"}, "", f.router, "/auth/forgot-password", http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.MsgResetSent, resp["message"])
	require.Len(t, f.mail.Messages(), sent+1)

	code := f.lastCode(t)
	rec, _ = testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "otp": wrong(code), "newPassword": "newpassword1"}, "", f.router, "/auth/reset-password", http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "otp": code, "newPassword": "newpassword1"}, "", f.router, "/auth/reset-password", http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.MsgPasswordReset, resp["message"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"email": "j@example.com", "password": "newpassword1"}, "", f.router, "/auth/login", http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func wrong(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}
