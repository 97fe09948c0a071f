package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const TenantHeader = "X-Tenant-ID"

var ErrUnknownToken = errors.New("unknown token")

type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// StaticTokens maps bearer tokens to tenant ids.
type StaticTokens map[string]string

// ParseTokens reads "token:tenant,token:tenant".
func ParseTokens(raw string) (StaticTokens, error) {
	tokens := StaticTokens{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, tenant, ok := strings.Cut(pair, ":")
		token, tenant = strings.TrimSpace(token), strings.TrimSpace(tenant)
		if !ok || token == "" || tenant == "" {
			return nil, fmt.Errorf("invalid token entry %q, want token:tenant", pair)
		}
		tokens[token] = tenant
	}
	return tokens, nil
}

func (s StaticTokens) ResolveTenant(_ context.Context, token string) (string, error) {
	tenant, ok := s[token]
	if !ok {
		return "", ErrUnknownToken
	}
	return tenant, nil
}

type tenantKey struct{}

func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

func TenantFromContext(ctx context.Context) (string, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(string)
	return tenant, ok && tenant != ""
}

// Identity attaches the caller's tenant to the request context. A bearer
// token wins over the tenant header, which is only honoured when
// allowHeader is set.
func Identity(resolver TenantResolver, allowHeader bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, hasToken := bearerToken(r)
			switch {
			case hasToken:
				if resolver == nil {
					WriteError(w, http.StatusForbidden, "invalid credentials")
					return
				}
				tenant, err := resolver.ResolveTenant(r.Context(), token)
				if err != nil || tenant == "" {
					WriteError(w, http.StatusForbidden, "invalid credentials")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
			case allowHeader && strings.TrimSpace(r.Header.Get(TenantHeader)) != "":
				tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
				next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
			default:
				WriteError(w, http.StatusUnauthorized, "missing credentials")
			}
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
