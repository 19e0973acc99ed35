package acceptance

import (
	"net/http"
	"net/url"

	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
)

func (s *Suite) refreshCookie(c *client) string {
	u, err := url.Parse(s.BaseURL)
	s.Require().NoError(err)
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == "refreshToken" {
			return cookie.Value
		}
	}
	return ""
}

func (s *Suite) TestRegister_Success() {
	c := s.newClient()
	resp := c.register("Ana Torres", "Ana@Gmail.com", "secret123")

	s.NotEmpty(resp.AccessToken)
	s.Equal("ana@gmail.com", resp.User.Email)
	s.Equal(domain.RoleUser, resp.User.Role)
	s.Equal(domain.DefaultCountry, resp.User.Country)
	s.NotEmpty(s.refreshCookie(c), "Should have refresh token cookie")
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.newClient().register("Ana Torres", "ana@gmail.com", "secret123")

	var errResp dto.ErrorResponse
	status := s.newClient().do(http.MethodPost, "/api/auth/register", dto.RegisterRequest{
		Name: "Ana Again", Email: "ana@gmail.com", Password: "secret123",
	}, &errResp)

	s.Equal(http.StatusConflict, status)
	s.Equal("email already registered", errResp.Error)
}

func (s *Suite) TestRegister_Validation() {
	tests := []struct {
		name  string
		req   dto.RegisterRequest
		field string
	}{
		{"bad email", dto.RegisterRequest{Name: "Ana", Email: "invalid-email", Password: "secret123"}, "email"},
		{"domain not allowed", dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret123"}, "email"},
		{"weak password", dto.RegisterRequest{Name: "Ana", Email: "ana@gmail.com", Password: "short"}, "password"},
		{"digits in name", dto.RegisterRequest{Name: "Ana 2", Email: "ana@gmail.com", Password: "secret123"}, "name"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			var errResp dto.ErrorResponse
			status := s.newClient().do(http.MethodPost, "/api/auth/register", tt.req, &errResp)
			s.Equal(http.StatusBadRequest, status)

			var fields []string
			for _, d := range errResp.Details {
				fields = append(fields, d.Field)
			}
			s.Contains(fields, tt.field)
		})
	}
}

func (s *Suite) TestLogin() {
	s.newClient().register("Ana Torres", "ana@gmail.com", "secret123")

	var resp dto.AuthResponse
	c := s.newClient()
	status := c.do(http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: "ana@gmail.com", Password: "secret123"}, &resp)
	s.Require().Equal(http.StatusOK, status)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(s.refreshCookie(c))

	for _, req := range []dto.LoginRequest{
		{Email: "ana@gmail.com", Password: "wrong-pass1"},
		{Email: "nobody@gmail.com", Password: "secret123"},
	} {
		var errResp dto.ErrorResponse
		status := s.newClient().do(http.MethodPost, "/api/auth/login", req, &errResp)
		s.Equal(http.StatusUnauthorized, status)
		s.Equal("invalid credentials", errResp.Error)
	}
}

func (s *Suite) TestMe() {
	anonymous := s.newClient()
	var me dto.UserResponse
	s.Equal(http.StatusOK, anonymous.do(http.MethodGet, "/api/auth/me", nil, &me))
	s.Nil(me.User)

	c := s.newClient()
	c.register("Ana Torres", "ana@gmail.com", "secret123")
	s.Equal(http.StatusOK, c.do(http.MethodGet, "/api/auth/me", nil, &me))
	s.Require().NotNil(me.User)
	s.Equal("ana@gmail.com", me.User.Email)
}

func (s *Suite) TestRefreshRotatesToken() {
	c := s.newClient()
	c.register("Ana Torres", "ana@gmail.com", "secret123")
	first := s.refreshCookie(c)

	var resp dto.AuthResponse
	s.Require().Equal(http.StatusOK, c.do(http.MethodPost, "/api/auth/refresh", nil, &resp))
	s.NotEmpty(resp.AccessToken)
	second := s.refreshCookie(c)
	s.NotEqual(first, second)

	// Replaying the rotated token must fail.
	replay := s.newClient()
	u, _ := url.Parse(s.BaseURL)
	replay.http.Jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: first, Path: "/"}})
	s.Equal(http.StatusUnauthorized, replay.do(http.MethodPost, "/api/auth/refresh", nil, nil))
}

func (s *Suite) TestRefreshWithoutCookie() {
	s.Equal(http.StatusUnauthorized, s.newClient().do(http.MethodPost, "/api/auth/refresh", nil, nil))
}

func (s *Suite) TestLogoutRevokesRefreshToken() {
	c := s.newClient()
	c.register("Ana Torres", "ana@gmail.com", "secret123")
	token := s.refreshCookie(c)

	var msg dto.SuccessResponse
	s.Require().Equal(http.StatusOK, c.do(http.MethodPost, "/api/auth/logout", nil, &msg))
	s.Equal("logged out", msg.Message)
	s.Empty(s.refreshCookie(c))

	replay := s.newClient()
	u, _ := url.Parse(s.BaseURL)
	replay.http.Jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: token, Path: "/"}})
	s.Equal(http.StatusUnauthorized, replay.do(http.MethodPost, "/api/auth/refresh", nil, nil))
}

func (s *Suite) TestUpdateProfileAndChangePassword() {
	c := s.newClient()
	c.register("Ana Torres", "ana@gmail.com", "secret123")

	var updated dto.UserResponse
	status := c.do(http.MethodPut, "/api/auth/update", map[string]any{
		"phone": "+51 912345678",
		"role":  "admin",
		"addresses": []map[string]any{
			{"label": "Casa", "street": "Av. Larco 123", "district": "Miraflores", "isPrimary": true},
		},
	}, &updated)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("+51 912345678", updated.User.Phone)
	s.Equal(domain.RoleUser, updated.User.Role)
	s.Len(updated.User.Addresses, 1)

	var errResp dto.ErrorResponse
	status = c.do(http.MethodPut, "/api/auth/change-password", dto.ChangePasswordRequest{
		CurrentPassword: "not-mine1", NewPassword: "brandnew42",
	}, &errResp)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("current password is incorrect", errResp.Error)

	status = c.do(http.MethodPut, "/api/auth/change-password", dto.ChangePasswordRequest{
		CurrentPassword: "secret123", NewPassword: "brandnew42",
	}, nil)
	s.Require().Equal(http.StatusOK, status)

	s.Equal(http.StatusOK, s.newClient().do(http.MethodPost, "/api/auth/login",
		dto.LoginRequest{Email: "ana@gmail.com", Password: "brandnew42"}, nil))
}

func (s *Suite) TestProtectedRoutesRequireToken() {
	anonymous := s.newClient()

	var errResp dto.ErrorResponse
	s.Equal(http.StatusUnauthorized, anonymous.do(http.MethodGet, "/api/orders/my-orders", nil, &errResp))
	s.Equal("no token provided", errResp.Error)

	anonymous.bearer = "forged"
	s.Equal(http.StatusUnauthorized, anonymous.do(http.MethodDelete, "/api/auth/delete-account", nil, nil))
}

func (s *Suite) TestAdminUserManagement() {
	shopper := s.newClient()
	ana := shopper.register("Ana Torres", "ana@gmail.com", "secret123")
	admin := s.staff("admin@gmail.com", domain.RoleAdmin)

	s.Equal(http.StatusForbidden, shopper.do(http.MethodGet, "/api/users", nil, nil))

	var users []*domain.User
	s.Require().Equal(http.StatusOK, admin.do(http.MethodGet, "/api/users", nil, &users))
	s.Len(users, 2)

	var errResp dto.ErrorResponse
	s.Equal(http.StatusBadRequest, admin.do(http.MethodPatch, "/api/users/"+ana.User.ID,
		dto.UpdateRoleRequest{Role: "superuser"}, &errResp))

	var promoted dto.UserResponse
	s.Require().Equal(http.StatusOK, admin.do(http.MethodPatch, "/api/users/"+ana.User.ID,
		dto.UpdateRoleRequest{Role: "assistant"}, &promoted))
	s.Equal(domain.RoleAssistant, promoted.User.Role)

	s.Equal(http.StatusNotFound, admin.do(http.MethodGet, "/api/users/6c2f1a7e-0000-4000-8000-000000000000", nil, nil))
	s.Equal(http.StatusBadRequest, admin.do(http.MethodGet, "/api/users/not-a-uuid", nil, nil))

	s.Require().Equal(http.StatusOK, admin.do(http.MethodDelete, "/api/users/"+ana.User.ID, nil, nil))
	s.Equal(http.StatusUnauthorized, shopper.do(http.MethodGet, "/api/orders/my-orders", nil, nil))
}
