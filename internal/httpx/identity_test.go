package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokens(t *testing.T) {
	tokens, err := ParseTokens(" abc:hospital-a , xyz:hospital-b,")
	require.NoError(t, err)
	assert.Equal(t, StaticTokens{"abc": "hospital-a", "xyz": "hospital-b"}, tokens)

	_, err = ParseTokens("abc")
	assert.Error(t, err)
	_, err = ParseTokens("abc:")
	assert.Error(t, err)

	empty, err := ParseTokens("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIdentity(t *testing.T) {
	resolver := StaticTokens{"good": "hospital-a"}
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := TenantFromContext(r.Context())
		require.True(t, ok)
		WriteJSON(w, http.StatusOK, map[string]string{"tenant": tenant})
	})

	tests := []struct {
		name        string
		allowHeader bool
		headers     map[string]string
		status      int
		tenant      string
	}{
		{"valid token", false, map[string]string{"Authorization": "Bearer good"}, http.StatusOK, "hospital-a"},
		{"unknown token", false, map[string]string{"Authorization": "Bearer bad"}, http.StatusForbidden, ""},
		{"missing", false, nil, http.StatusUnauthorized, ""},
		{"wrong scheme", false, map[string]string{"Authorization": "Basic good"}, http.StatusUnauthorized, ""},
		{"header disabled", false, map[string]string{TenantHeader: "hospital-b"}, http.StatusUnauthorized, ""},
		{"header enabled", true, map[string]string{TenantHeader: "hospital-b"}, http.StatusOK, "hospital-b"},
		{"token beats header", true, map[string]string{"Authorization": "Bearer good", TenantHeader: "hospital-b"}, http.StatusOK, "hospital-a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			Identity(resolver, tt.allowHeader)(echo).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.tenant != "" {
				assert.JSONEq(t, `{"tenant":"`+tt.tenant+`"}`, rec.Body.String())
			}
		})
	}
}

func TestTenantFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := TenantFromContext(req.Context())
	assert.False(t, ok)
	_, ok = TenantFromContext(WithTenant(req.Context(), ""))
	assert.False(t, ok)
}
