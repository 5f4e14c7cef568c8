package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-studio-go/internal/middleware"
	"ai-studio-go/internal/model"
	"ai-studio-go/internal/service"
	"ai-studio-go/pkg/session"

	"github.com/gin-gonic/gin"
)

// fakeAuthService 返回预置结果，用于驱动 handler 的状态码映射。
type fakeAuthService struct {
	user *model.User
	err  error
}

func (s *fakeAuthService) Signup(email, password string) (*model.User, error) {
	return s.user, s.err
}
func (s *fakeAuthService) RequestOTP(email string) (*model.User, error) { return s.user, s.err }
func (s *fakeAuthService) VerifyOTP(email, otp string) (*model.User, error) {
	return s.user, s.err
}
func (s *fakeAuthService) LoginWithPassword(email, password string) (*model.User, error) {
	return s.user, s.err
}
func (s *fakeAuthService) LoginWithOTP(email, otp string) (*model.User, error) {
	return s.user, s.err
}
func (s *fakeAuthService) GetUser(userID string) (*model.User, error) { return s.user, s.err }

// fakeHistoryService 返回预置的用户历史。
type fakeHistoryService struct {
	history *service.UserHistory
}

func (s *fakeHistoryService) GetUserHistory(userID string) (*service.UserHistory, error) {
	return s.history, nil
}

func (s *fakeHistoryService) GetProject(projectID string) (*model.Project, error) {
	return nil, nil
}

func newAuthRouter(authService service.AuthService, manager *session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.SessionMiddleware(manager))
	h := NewAuthHandler(authService, &fakeHistoryService{history: &service.UserHistory{}}, manager)
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/verify-otp", h.VerifyOTP)
		auth.POST("/login", h.Login)
		auth.GET("/session", h.Session)
		auth.GET("/history", middleware.RequireLogin(), h.History)
	}
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{err: service.ErrUserExists}, session.NewManager("s", "studio_session", 24, false))

	w := postJSON(r, "/api/v1/auth/signup", `{"email":"a@example.com","password":"password123"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{}, session.NewManager("s", "studio_session", 24, false))

	w := postJSON(r, "/api/v1/auth/signup", `{"email":"a@example.com","password":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
}

func TestVerifyOTPInvalidCodeIsUnauthorized(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{err: service.ErrInvalidOTP}, session.NewManager("s", "studio_session", 24, false))

	w := postJSON(r, "/api/v1/auth/verify-otp", `{"email":"a@example.com","otp":"123456"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	manager := session.NewManager("s", "studio_session", 24, false)
	user := &model.User{ID: "u-1", Email: "a@example.com", IsVerified: true}
	r := newAuthRouter(&fakeAuthService{user: user}, manager)

	w := postJSON(r, "/api/v1/auth/login", `{"email":"a@example.com","password":"password123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "studio_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("login must set the session cookie")
	}
	data, err := manager.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("cookie must carry a valid session: %v", err)
	}
	if data.User.ID != "u-1" {
		t.Errorf("session user: got %q", data.User.ID)
	}
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	r := newAuthRouter(&fakeAuthService{err: service.ErrInvalidCredentials}, session.NewManager("s", "studio_session", 24, false))

	w := postJSON(r, "/api/v1/auth/login", `{"email":"a@example.com","password":"wrongpass"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
}

func TestSessionEndpointReflectsLoginState(t *testing.T) {
	manager := session.NewManager("s", "studio_session", 24, false)
	r := newAuthRouter(&fakeAuthService{}, manager)

	// 无 cookie：未登录
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["isLoggedIn"] != false {
		t.Errorf("anonymous session: got %v", resp["isLoggedIn"])
	}

	// 携带有效 cookie：已登录
	token, err := manager.Issue(session.UserInfo{ID: "u-1", Email: "a@example.com", IsVerified: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: "studio_session", Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp = map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["isLoggedIn"] != true {
		t.Errorf("logged-in session: got %v", resp["isLoggedIn"])
	}
}

func TestHistoryLivesUnderAuthGroup(t *testing.T) {
	manager := session.NewManager("s", "studio_session", 24, false)
	r := newAuthRouter(&fakeAuthService{}, manager)

	// 未登录访问被拒
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous history: got %d, want 401", w.Code)
	}

	// 登录后在 auth 组路径下可达
	token, err := manager.Issue(session.UserInfo{ID: "u-1", Email: "a@example.com", IsVerified: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/history", nil)
	req.AddCookie(&http.Cookie{Name: "studio_session", Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("logged-in history: got %d, body: %s", w.Code, w.Body.String())
	}
}

func TestSessionWithGarbageCookieIsAnonymous(t *testing.T) {
	manager := session.NewManager("s", "studio_session", 24, false)
	r := newAuthRouter(&fakeAuthService{}, manager)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: "studio_session", Value: "not-a-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"isLoggedIn":false`) {
		t.Errorf("garbage cookie must be treated as anonymous, got: %s", w.Body.String())
	}
}
