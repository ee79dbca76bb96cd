package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-commerce/app/controller"
	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/app/entity"
	"github.com/vibast-solutions/ms-go-commerce/app/service"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type stubUserService struct {
	registerFn       func(req *dto.RegisterRequest) (string, error)
	activateFn       func(token string) (*entity.User, error)
	loginFn          func(req *dto.LoginRequest) (*entity.User, string, error)
	getUsersFn       func(search string, page, limit int64) ([]entity.User, dto.Pagination, error)
	getUserFn        func(id string) (*entity.User, error)
	updateUserFn     func(id string, req *dto.UpdateUserRequest) (*entity.User, error)
	deleteUserFn     func(id string) error
	manageUserFn     func(id, action string) (*entity.User, string, error)
	updatePasswordFn func(id string, req *dto.UpdatePasswordRequest) (*entity.User, error)
	forgetPasswordFn func(email string) (string, error)
	resetPasswordFn  func(req *dto.ResetPasswordRequest) error
}

func (s *stubUserService) ProcessRegister(_ context.Context, req *dto.RegisterRequest, _ string) (string, error) {
	return s.registerFn(req)
}

func (s *stubUserService) Activate(_ context.Context, token string) (*entity.User, error) {
	return s.activateFn(token)
}

func (s *stubUserService) Login(_ context.Context, req *dto.LoginRequest) (*entity.User, string, error) {
	return s.loginFn(req)
}

func (s *stubUserService) ValidateSessionToken(string) (*service.SessionClaims, error) {
	return nil, service.ErrInvalidToken
}

func (s *stubUserService) GetUsers(_ context.Context, search string, page, limit int64) ([]entity.User, dto.Pagination, error) {
	return s.getUsersFn(search, page, limit)
}

func (s *stubUserService) GetUser(_ context.Context, id string) (*entity.User, error) {
	return s.getUserFn(id)
}

func (s *stubUserService) UpdateUser(_ context.Context, id string, req *dto.UpdateUserRequest, _ string) (*entity.User, error) {
	return s.updateUserFn(id, req)
}

func (s *stubUserService) DeleteUser(_ context.Context, id string) error {
	return s.deleteUserFn(id)
}

func (s *stubUserService) ManageUser(_ context.Context, id, action string) (*entity.User, string, error) {
	return s.manageUserFn(id, action)
}

func (s *stubUserService) UpdatePassword(_ context.Context, id string, req *dto.UpdatePasswordRequest) (*entity.User, error) {
	return s.updatePasswordFn(id, req)
}

func (s *stubUserService) ForgetPassword(_ context.Context, email string) (string, error) {
	return s.forgetPasswordFn(email)
}

func (s *stubUserService) ResetPassword(_ context.Context, req *dto.ResetPasswordRequest) error {
	return s.resetPasswordFn(req)
}

func jsonRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) dto.SuccessResponse {
	t.Helper()
	var body dto.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode success body: %v", err)
	}
	return body
}

const registerBody = `{"name":"Alice Example","email":"alice@x.com","password":"secret123","phone":"0123456789","address":"1 Example Street"}`

func TestProcessRegisterHandler(t *testing.T) {
	svc := &stubUserService{
		registerFn: func(req *dto.RegisterRequest) (string, error) {
			if req.Email != "alice@x.com" {
				t.Errorf("unexpected email %q", req.Email)
			}
			return "activation-token", nil
		},
	}
	ctl := controller.NewUserController(svc)

	c, rec := jsonRequest(http.MethodPost, "/api/users/process-register", registerBody)
	if err := ctl.ProcessRegister(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeSuccess(t, rec)
	if body.Payload != "activation-token" {
		t.Errorf("payload = %v, want the token", body.Payload)
	}
	if !strings.Contains(body.Message, "alice@x.com") {
		t.Errorf("message should name the email, got %q", body.Message)
	}
}

func TestProcessRegisterHandlerConflict(t *testing.T) {
	svc := &stubUserService{
		registerFn: func(*dto.RegisterRequest) (string, error) {
			return "", service.ErrEmailAlreadyRegistered
		},
	}
	ctl := controller.NewUserController(svc)

	c, rec := jsonRequest(http.MethodPost, "/api/users/process-register", registerBody)
	if err := ctl.ProcessRegister(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestProcessRegisterHandlerValidation(t *testing.T) {
	ctl := controller.NewUserController(&stubUserService{
		registerFn: func(*dto.RegisterRequest) (string, error) {
			t.Fatal("service must not be called on invalid input")
			return "", nil
		},
	})

	c, rec := jsonRequest(http.MethodPost, "/api/users/process-register", `{"email":"not-an-email"}`)
	if err := ctl.ProcessRegister(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestActivateHandler(t *testing.T) {
	user := &entity.User{ID: bson.NewObjectID(), Email: "alice@x.com"}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusCreated},
		{"expired token", service.ErrTokenExpired, http.StatusUnauthorized},
		{"invalid token", service.ErrInvalidToken, http.StatusUnauthorized},
		{"already registered", service.ErrEmailAlreadyRegistered, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := controller.NewUserController(&stubUserService{
				activateFn: func(string) (*entity.User, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return user, nil
				},
			})

			c, rec := jsonRequest(http.MethodPost, "/api/users/activate", `{"token":"some-token"}`)
			if err := ctl.Activate(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestGetUsersHandlerNotFound(t *testing.T) {
	ctl := controller.NewUserController(&stubUserService{
		getUsersFn: func(string, int64, int64) ([]entity.User, dto.Pagination, error) {
			return nil, dto.Pagination{}, service.ErrNoUsersFound
		},
	})

	c, rec := jsonRequest(http.MethodGet, "/api/users", "")
	if err := ctl.GetUsers(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetUsersHandlerPassesQuery(t *testing.T) {
	var gotSearch string
	var gotPage, gotLimit int64
	ctl := controller.NewUserController(&stubUserService{
		getUsersFn: func(search string, page, limit int64) ([]entity.User, dto.Pagination, error) {
			gotSearch, gotPage, gotLimit = search, page, limit
			return []entity.User{{Name: "Alice"}}, dto.NewPagination(1, 1, 5), nil
		},
	})

	c, rec := jsonRequest(http.MethodGet, "/api/users?search=ali&page=2&limit=5", "")
	if err := ctl.GetUsers(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if gotSearch != "ali" || gotPage != 2 || gotLimit != 5 {
		t.Errorf("query not passed through: %q %d %d", gotSearch, gotPage, gotLimit)
	}
}

func TestUpdateUserHandlerEmailImmutable(t *testing.T) {
	ctl := controller.NewUserController(&stubUserService{
		updateUserFn: func(string, *dto.UpdateUserRequest) (*entity.User, error) {
			return nil, service.ErrEmailImmutable
		},
	})

	c, rec := jsonRequest(http.MethodPut, "/api/users/abc", `{"email":"new@x.com"}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := ctl.UpdateUser(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); !strings.Contains(body.Message, "email") {
		t.Errorf("message should mention email, got %q", body.Message)
	}
}

func TestManageUserHandlerInvalidAction(t *testing.T) {
	ctl := controller.NewUserController(&stubUserService{
		manageUserFn: func(_, action string) (*entity.User, string, error) {
			if action != "suspend" {
				t.Errorf("unexpected action %q", action)
			}
			return nil, "", service.ErrInvalidAction
		},
	})

	c, rec := jsonRequest(http.MethodPut, "/api/users/manage/abc", `{"action":"suspend"}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := ctl.ManageUser(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestForgetPasswordHandlerUnknownEmail(t *testing.T) {
	ctl := controller.NewUserController(&stubUserService{
		forgetPasswordFn: func(string) (string, error) {
			return "", service.ErrEmailNotFound
		},
	})

	c, rec := jsonRequest(http.MethodPost, "/api/users/forget-password", `{"email":"nobody@x.com"}`)
	if err := ctl.ForgetPassword(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResetPasswordHandlerTokenErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusAccepted},
		{"expired", service.ErrTokenExpired, http.StatusUnauthorized},
		{"invalid", service.ErrInvalidToken, http.StatusUnauthorized},
		{"deleted account", service.ErrUserNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := controller.NewUserController(&stubUserService{
				resetPasswordFn: func(*dto.ResetPasswordRequest) error {
					return tt.err
				},
			})

			c, rec := jsonRequest(http.MethodPut, "/api/users/reset-password", `{"token":"some-token","password":"newsecret"}`)
			if err := ctl.ResetPassword(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
