package attack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectra-ai-research/halberd/internal/technique"
)

func TestRegisterAll(t *testing.T) {
	registry := technique.NewRegistry()
	require.NoError(t, RegisterAll(registry))

	descriptors := registry.Descriptors()
	require.Len(t, descriptors, 3)
	assert.Equal(t, "entra_recon_tenant_info", descriptors[0].ID)
	assert.Equal(t, "entra_check_user_validity", descriptors[1].ID)
	assert.Equal(t, "entra_recon_domain_federation", descriptors[2].ID)

	for _, desc := range descriptors {
		assert.Equal(t, technique.SurfaceEntraID, desc.Surface)
		assert.NotEmpty(t, desc.MitreTechniques)
	}

	// Registering twice collides on every ID.
	assert.Error(t, RegisterAll(registry))
}

func TestTenantReconSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contoso.com/.well-known/openid-configuration", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"token_endpoint":   "https://login.microsoftonline.com/31537af4-6eb9-4183-8f7f-126891b55eb5/oauth2/token",
			"scopes_supported": []string{"openid"},
		})
	}))
	defer server.Close()

	tech := newTenantRecon(server.Client(), server.URL)
	require.NoError(t, tech.ValidateParameters(map[string]any{"target_domain": "contoso.com"}))

	result := tech.Execute(context.Background(), map[string]any{"target_domain": "contoso.com"})
	require.Equal(t, technique.StatusSuccess, result.Status)

	value, ok := result.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "31537af4-6eb9-4183-8f7f-126891b55eb5", value["tenant_id"])
	assert.Equal(t, "contoso.com", value["domain_name"])
}

func TestTenantReconNoTenantID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token_endpoint": "https://example.com/token"})
	}))
	defer server.Close()

	tech := newTenantRecon(server.Client(), server.URL)
	result := tech.Execute(context.Background(), map[string]any{"target_domain": "contoso.com"})
	assert.Equal(t, technique.StatusPartialSuccess, result.Status)
}

func TestTenantReconHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	tech := newTenantRecon(server.Client(), server.URL)
	result := tech.Execute(context.Background(), map[string]any{"target_domain": "contoso.com"})
	assert.Equal(t, technique.StatusFailure, result.Status)
	assert.Contains(t, result.ErrorDetail, "400")
}

func TestTenantReconUnreachable(t *testing.T) {
	tech := newTenantRecon(defaultClient, "http://127.0.0.1:1")
	result := tech.Execute(context.Background(), map[string]any{"target_domain": "contoso.com"})
	assert.Equal(t, technique.StatusFailure, result.Status)
}

func TestCheckUserValidity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/common/GetCredentialType", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		exists := 1
		if body["username"] == "alice@contoso.com" {
			exists = 0
		}
		json.NewEncoder(w).Encode(map[string]any{"IfExistsResult": exists})
	}))
	defer server.Close()

	tech := newCheckUserValidity(server.Client(), server.URL)
	result := tech.Execute(context.Background(), map[string]any{
		"username": "alice@contoso.com\nbob@contoso.com",
	})
	require.Equal(t, technique.StatusSuccess, result.Status)

	value, ok := result.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"alice@contoso.com"}, value["valid_users"])
	assert.Equal(t, []string{"bob@contoso.com"}, value["invalid_users"])
}

func TestCheckUserValidityMissingParam(t *testing.T) {
	tech := NewCheckUserValidity()
	err := tech.ValidateParameters(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestReconDomainFederation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getuserrealm.srf", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"NameSpaceType":       "Managed",
			"FederationBrandName": "Contoso",
		})
	}))
	defer server.Close()

	tech := newReconDomainFederation(server.Client(), server.URL)
	result := tech.Execute(context.Background(), map[string]any{"target_domain": "contoso.com"})
	require.Equal(t, technique.StatusSuccess, result.Status)

	value, ok := result.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Managed", value["namespace_type"])
}

func TestReconDomainFederationUnknownNamespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"NameSpaceType": "Unknown"})
	}))
	defer server.Close()

	tech := newReconDomainFederation(server.Client(), server.URL)
	result := tech.Execute(context.Background(), map[string]any{"target_domain": "nonexistent.example"})
	assert.Equal(t, technique.StatusPartialSuccess, result.Status)
}
