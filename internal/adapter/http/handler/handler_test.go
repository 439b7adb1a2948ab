package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"taskmanager/internal/adapter/database"
	server "taskmanager/internal/adapter/http"
	"taskmanager/internal/adapter/http/routes"
	"taskmanager/internal/core/model/response"
	"taskmanager/pkg/auth"
	"taskmanager/pkg/config"
)

type HandlerSuite struct {
	suite.Suite
	Router *gin.Engine
	Stores *database.Stores
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: config.EnvTest,
		ServiceName: "taskmanager-test",
		JWTSecret:   "test-secret",
		SessionTTL:  time.Hour,
	}
}

func (s *HandlerSuite) SetupTest() {
	RegisterTestingT(s.T())

	gin.SetMode(gin.TestMode)

	stores, err := database.Open(context.Background(), database.Config{Driver: database.DriverMemory}, nil)
	s.Require().NoError(err)
	s.Stores = stores

	logger := config.NewNopLogger()
	appConfig := testConfig()

	container := server.NewContainer(stores, appConfig, nil, nil, logger)
	s.Router = routes.SetupRouterWithConfig(container.Handlers(), nil, logger, appConfig)
}

func (s *HandlerSuite) TearDownTest() {
	s.Stores.Close()
}

func (s *HandlerSuite) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	return w
}

// session signs up and logs in, returning the session cookie.
func (s *HandlerSuite) session(email string) *http.Cookie {
	w := s.do(http.MethodPost, "/auth/signup", `{"email":"`+email+`","password":"password123"}`)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"password123"}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie
		}
	}

	s.FailNow("login did not set the session cookie")
	return nil
}

func (s *HandlerSuite) createTask(cookie *http.Cookie, body string) response.TaskResponse {
	w := s.do(http.MethodPost, "/tasks", body, cookie)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task response.TaskResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))

	return task
}

func decodeError(w *httptest.ResponseRecorder) response.ErrorResponse {
	var body response.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func (s *HandlerSuite) TestCreateTask_AssignsIDOwnerAndDefaults() {
	alice := s.session("alice@example.com")

	task := s.createTask(alice, `{"title":"Buy milk"}`)

	Expect(task.ID).NotTo(BeEmpty())
	Expect(task.UserID).To(Equal("alice@example.com"))
	Expect(task.Title).To(Equal("Buy milk"))
	Expect(task.Description).To(Equal(""))
	Expect(task.Completed).To(BeFalse())
	Expect(task.CreatedAt).To(Equal(task.UpdatedAt))
}

func (s *HandlerSuite) TestCreateTask_IgnoresClientSuppliedOwner() {
	alice := s.session("alice@example.com")

	task := s.createTask(alice, `{"title":"Mine","userId":"mallory@example.com","id":"fixed"}`)

	Expect(task.UserID).To(Equal("alice@example.com"))
	Expect(task.ID).NotTo(Equal("fixed"))
}

func (s *HandlerSuite) TestCreateTask_Validation() {
	alice := s.session("alice@example.com")

	w := s.do(http.MethodPost, "/tasks", `{"title":"   "}`, alice)
	Expect(w.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(w).Error).To(Equal("Title is required"))

	w = s.do(http.MethodPost, "/tasks", `{"title":"`+strings.Repeat("a", 101)+`"}`, alice)
	Expect(w.Code).To(Equal(http.StatusBadRequest))

	w = s.do(http.MethodPost, "/tasks", `not json`, alice)
	Expect(w.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(w).Error).To(Equal("Invalid request body"))
}

func (s *HandlerSuite) TestTaskRoutes_RequireSession() {
	for _, route := range [][2]string{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/some-id"},
		{http.MethodPatch, "/tasks/some-id"},
		{http.MethodDelete, "/tasks/some-id"},
	} {
		w := s.do(route[0], route[1], `{"title":"x"}`)
		Expect(w.Code).To(Equal(http.StatusUnauthorized), route[0]+" "+route[1])
		Expect(w.Body.String()).To(MatchJSON(`{"error":"Unauthorized"}`))
	}
}

func (s *HandlerSuite) TestListTasks_OnlyOwnTasks() {
	alice := s.session("alice@example.com")
	bob := s.session("bob@example.com")

	s.createTask(alice, `{"title":"A1"}`)
	s.createTask(alice, `{"title":"A2"}`)
	s.createTask(bob, `{"title":"B1"}`)

	w := s.do(http.MethodGet, "/tasks", "", alice)
	Expect(w.Code).To(Equal(http.StatusOK))

	var tasks []response.TaskResponse
	Expect(json.Unmarshal(w.Body.Bytes(), &tasks)).To(Succeed())
	Expect(tasks).To(HaveLen(2))

	for _, task := range tasks {
		Expect(task.UserID).To(Equal("alice@example.com"))
	}
}

func (s *HandlerSuite) TestListTasks_EmptyIsArray() {
	alice := s.session("alice@example.com")

	w := s.do(http.MethodGet, "/tasks", "", alice)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(MatchJSON(`[]`))
}

func (s *HandlerSuite) TestUpdateTask_ForeignTaskIsForbidden() {
	alice := s.session("alice@example.com")
	bob := s.session("bob@example.com")

	task := s.createTask(alice, `{"title":"Buy milk"}`)

	w := s.do(http.MethodPatch, "/tasks/"+task.ID, `{"completed":true}`, bob)
	Expect(w.Code).To(Equal(http.StatusForbidden))
	Expect(decodeError(w).Error).To(Equal("Forbidden"))

	w = s.do(http.MethodGet, "/tasks/"+task.ID, "", alice)

	var stored response.TaskResponse
	Expect(json.Unmarshal(w.Body.Bytes(), &stored)).To(Succeed())
	Expect(stored.Completed).To(BeFalse())
}

func (s *HandlerSuite) TestUpdateTask_EmptyPatchIsBadRequest() {
	alice := s.session("alice@example.com")
	task := s.createTask(alice, `{"title":"Buy milk"}`)

	w := s.do(http.MethodPatch, "/tasks/"+task.ID, `{}`, alice)

	Expect(w.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(w).Error).To(Equal("No valid fields to update"))
}

func (s *HandlerSuite) TestUpdateTask_MergesProvidedFields() {
	alice := s.session("alice@example.com")
	task := s.createTask(alice, `{"title":"Buy milk","description":"2 litres"}`)

	w := s.do(http.MethodPatch, "/tasks/"+task.ID, `{"completed":true,"unknown":"ignored"}`, alice)
	Expect(w.Code).To(Equal(http.StatusOK))

	var updated response.TaskResponse
	Expect(json.Unmarshal(w.Body.Bytes(), &updated)).To(Succeed())
	Expect(updated.Completed).To(BeTrue())
	Expect(updated.Title).To(Equal("Buy milk"))
	Expect(updated.Description).To(Equal("2 litres"))
	Expect(updated.CreatedAt).To(Equal(task.CreatedAt))
	Expect(updated.UpdatedAt).NotTo(BeTemporally("<", task.UpdatedAt))
}

func (s *HandlerSuite) TestUpdateTask_UnknownIDIsNotFound() {
	alice := s.session("alice@example.com")

	w := s.do(http.MethodPatch, "/tasks/does-not-exist", `{"title":""}`, alice)

	Expect(w.Code).To(Equal(http.StatusNotFound))
	Expect(decodeError(w).Error).To(Equal("Task not found"))
}

func (s *HandlerSuite) TestDeleteTask_ThenNotFound() {
	alice := s.session("alice@example.com")
	task := s.createTask(alice, `{"title":"Buy milk"}`)

	w := s.do(http.MethodDelete, "/tasks/"+task.ID, "", alice)
	Expect(w.Code).To(Equal(http.StatusNoContent))
	Expect(w.Body.Len()).To(BeZero())

	w = s.do(http.MethodGet, "/tasks/"+task.ID, "", alice)
	Expect(w.Code).To(Equal(http.StatusNotFound))

	w = s.do(http.MethodDelete, "/tasks/"+task.ID, "", alice)
	Expect(w.Code).To(Equal(http.StatusNotFound))
}

func (s *HandlerSuite) TestCreateAndDelete_RecordSpanEvents() {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(previous)

	alice := s.session("alice@example.com")
	task := s.createTask(alice, `{"title":"Buy milk"}`)

	w := s.do(http.MethodDelete, "/tasks/"+task.ID, "", alice)
	Expect(w.Code).To(Equal(http.StatusNoContent))

	events := map[string]string{}

	for _, span := range recorder.Ended() {
		for _, event := range span.Events() {
			for _, attr := range event.Attributes {
				if attr.Key == "task.id" {
					events[event.Name] = attr.Value.AsString()
				}
			}
		}
	}

	Expect(events).To(HaveKeyWithValue("task.created", task.ID))
	Expect(events).To(HaveKeyWithValue("task.deleted", task.ID))
}

func (s *HandlerSuite) TestDeleteTask_ForeignTaskIsForbidden() {
	alice := s.session("alice@example.com")
	bob := s.session("bob@example.com")
	task := s.createTask(alice, `{"title":"Buy milk"}`)

	w := s.do(http.MethodDelete, "/tasks/"+task.ID, "", bob)
	Expect(w.Code).To(Equal(http.StatusForbidden))

	w = s.do(http.MethodGet, "/tasks/"+task.ID, "", alice)
	Expect(w.Code).To(Equal(http.StatusOK))
}

func (s *HandlerSuite) TestSignUp_DuplicateEmail() {
	s.session("alice@example.com")

	w := s.do(http.MethodPost, "/auth/signup", `{"email":"ALICE@example.com","password":"password123"}`)

	Expect(w.Code).To(Equal(http.StatusBadRequest))
	Expect(decodeError(w).Error).To(ContainSubstring("already in use"))
}

func (s *HandlerSuite) TestSignUp_ValidationErrors() {
	w := s.do(http.MethodPost, "/auth/signup", `{"email":"nope","password":"short"}`)

	Expect(w.Code).To(Equal(http.StatusBadRequest))
	Expect(w.Body.String()).To(MatchJSON(`{
		"error": "Validation failed",
		"details": [
			{"field": "email", "message": "email must be a valid email address"},
			{"field": "password", "message": "password must be at least 8 characters"}
		]
	}`))
}

func (s *HandlerSuite) TestSignUp_ReturnsUserWithoutPassword() {
	w := s.do(http.MethodPost, "/auth/signup", `{"email":"Carol@Example.com","password":"password123"}`)

	Expect(w.Code).To(Equal(http.StatusCreated))
	Expect(w.Body.String()).NotTo(ContainSubstring("password"))

	var body response.AuthResponse
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
	Expect(body.User.Email).To(Equal("carol@example.com"))
	Expect(body.User.Name).To(Equal("carol"))
	Expect(body.User.ID).To(HavePrefix("user_"))
}

func (s *HandlerSuite) TestLogin_SetsHttpOnlyCookie() {
	s.session("alice@example.com")

	w := s.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"password123"}`)
	Expect(w.Code).To(Equal(http.StatusOK))

	header := w.Header().Get("Set-Cookie")
	Expect(header).To(HavePrefix(auth.CookieName + "="))
	Expect(header).To(ContainSubstring("HttpOnly"))
	Expect(header).To(ContainSubstring("SameSite=Lax"))
	Expect(header).To(ContainSubstring("Path=/"))
}

func (s *HandlerSuite) TestLogin_WrongPassword() {
	s.session("alice@example.com")

	w := s.do(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong-password"}`)

	Expect(w.Code).To(Equal(http.StatusUnauthorized))
	Expect(decodeError(w).Error).To(Equal("Invalid email or password"))
	Expect(w.Header().Get("Set-Cookie")).To(BeEmpty())
}

func (s *HandlerSuite) TestMeAndLogout() {
	alice := s.session("alice@example.com")

	w := s.do(http.MethodGet, "/auth/me", "", alice)
	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(ContainSubstring(`"email":"alice@example.com"`))

	w = s.do(http.MethodPost, "/auth/logout", "", alice)
	Expect(w.Code).To(Equal(http.StatusNoContent))
	Expect(w.Header().Get("Set-Cookie")).To(ContainSubstring("Max-Age=0"))

	w = s.do(http.MethodGet, "/auth/me", "")
	Expect(w.Code).To(Equal(http.StatusUnauthorized))
}

func (s *HandlerSuite) TestBearerHeaderIsAccepted() {
	alice := s.session("alice@example.com")

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+alice.Value)

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusOK))
}

func (s *HandlerSuite) TestHealthz() {
	w := s.do(http.MethodGet, "/healthz", "")

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
}
