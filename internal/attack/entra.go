package attack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/vectra-ai-research/halberd/internal/technique"
)

// tenantIDPattern extracts a tenant GUID from an OpenID token endpoint.
var tenantIDPattern = regexp.MustCompile(`(?i)([a-f\d]{8}-[a-f\d]{4}-[a-f\d]{4}-[a-f\d]{4}-[a-f\d]{12})`)

// tenantRecon gathers tenant information for a target domain through
// the unauthenticated OpenID configuration endpoint.
type tenantRecon struct {
	technique.Base
	client  *http.Client
	baseURL string
}

// NewTenantRecon creates the entra_recon_tenant_info technique.
func NewTenantRecon() technique.Technique {
	return newTenantRecon(defaultClient, loginBase)
}

func newTenantRecon(client *http.Client, baseURL string) technique.Technique {
	return &tenantRecon{
		Base: technique.Base{
			Desc: technique.Descriptor{
				ID:          "entra_recon_tenant_info",
				Name:        "Recon Tenant Info",
				Description: "Recon information related to the target Microsoft tenant",
				Surface:     technique.SurfaceEntraID,
				MitreTechniques: []technique.MitreTechnique{
					{
						TechniqueID:   "T1526",
						TechniqueName: "Cloud Service Discovery",
						Tactics:       []string{"Discovery"},
					},
				},
			},
			Params: map[string]technique.ParameterSpec{
				"target_domain": {
					Name:        "target_domain",
					Type:        technique.ParamTypeString,
					Required:    true,
					DisplayName: "Target Domain",
					InputHint:   "text",
				},
			},
		},
		client:  client,
		baseURL: baseURL,
	}
}

func (t *tenantRecon) Execute(ctx context.Context, supplied map[string]any) technique.ExecutionResult {
	domain, _ := supplied["target_domain"].(string)

	endpoint := fmt.Sprintf("%s/%s/.well-known/openid-configuration", t.baseURL, url.PathEscape(domain))
	body, status, err := getJSON(ctx, t.client, endpoint)
	if err != nil {
		return technique.NewFailureResult("Failed to recon tenant information", err.Error())
	}
	if status != http.StatusOK {
		return technique.NewFailureResult("Failed to recon tenant information",
			fmt.Sprintf("unexpected status %d", status))
	}

	tokenEndpoint, _ := body["token_endpoint"].(string)
	match := tenantIDPattern.FindString(tokenEndpoint)
	if match == "" {
		return technique.NewPartialSuccessResult(
			"Tenant responded but no tenant ID could be extracted", body)
	}

	return technique.NewSuccessResult("Successfully gathered tenant information", map[string]any{
		"tenant_id":        strings.ToLower(match),
		"domain_name":      domain,
		"token_endpoint":   tokenEndpoint,
		"scopes_supported": body["scopes_supported"],
	})
}

// checkUserValidity validates whether users exist in a target tenant
// through the GetCredentialType endpoint.
type checkUserValidity struct {
	technique.Base
	client  *http.Client
	baseURL string
}

// NewCheckUserValidity creates the entra_check_user_validity technique.
func NewCheckUserValidity() technique.Technique {
	return newCheckUserValidity(defaultClient, loginBase)
}

func newCheckUserValidity(client *http.Client, baseURL string) technique.Technique {
	return &checkUserValidity{
		Base: technique.Base{
			Desc: technique.Descriptor{
				ID:          "entra_check_user_validity",
				Name:        "Check User Validity",
				Description: "Validates if the user/users exist in a target tenant",
				Surface:     technique.SurfaceEntraID,
				MitreTechniques: []technique.MitreTechnique{
					{
						TechniqueID:      "T1087.004",
						TechniqueName:    "Account Discovery",
						Tactics:          []string{"Discovery"},
						SubTechniqueName: "Cloud Account",
					},
				},
			},
			Params: map[string]technique.ParameterSpec{
				"username": {
					Name:        "username",
					Type:        technique.ParamTypeString,
					Required:    true,
					DisplayName: "Username",
					InputHint:   "text",
				},
			},
		},
		client:  client,
		baseURL: baseURL,
	}
}

func (t *checkUserValidity) Execute(ctx context.Context, supplied map[string]any) technique.ExecutionResult {
	username, _ := supplied["username"].(string)

	// Usernames may be supplied as a newline or comma separated list.
	var users []string
	for _, user := range strings.FieldsFunc(username, func(r rune) bool {
		return r == '\n' || r == ','
	}) {
		if trimmed := strings.TrimSpace(user); trimmed != "" {
			users = append(users, trimmed)
		}
	}

	endpoint := t.baseURL + "/common/GetCredentialType"
	var validUsers, invalidUsers []string

	for _, user := range users {
		payload, err := json.Marshal(map[string]any{
			"username":            user,
			"isOtherIdpSupported": true,
		})
		if err != nil {
			return technique.NewErrorResult("Failed to encode request", err.Error())
		}

		body, status, err := postJSON(ctx, t.client, endpoint, payload)
		if err != nil {
			return technique.NewFailureResult("Failed to validate users", err.Error())
		}
		if status != http.StatusOK {
			return technique.NewFailureResult("Failed to validate users",
				fmt.Sprintf("unexpected status %d", status))
		}

		// IfExistsResult 0 means the account exists.
		if exists, ok := body["IfExistsResult"].(float64); ok && exists == 0 {
			validUsers = append(validUsers, user)
		} else {
			invalidUsers = append(invalidUsers, user)
		}
	}

	return technique.NewSuccessResult(
		fmt.Sprintf("Successfully validated users. %d user(s) found", len(validUsers)),
		map[string]any{
			"valid_users":   validUsers,
			"invalid_users": invalidUsers,
		})
}

// reconDomainFederation discovers a domain's namespace type and
// federation setup through the getuserrealm endpoint.
type reconDomainFederation struct {
	technique.Base
	client  *http.Client
	baseURL string
}

// NewReconDomainFederation creates the entra_recon_domain_federation technique.
func NewReconDomainFederation() technique.Technique {
	return newReconDomainFederation(defaultClient, loginBase)
}

func newReconDomainFederation(client *http.Client, baseURL string) technique.Technique {
	return &reconDomainFederation{
		Base: technique.Base{
			Desc: technique.Descriptor{
				ID:          "entra_recon_domain_federation",
				Name:        "Recon Domain Federation",
				Description: "Discovers the target domain's namespace type and federation configuration",
				Surface:     technique.SurfaceEntraID,
				MitreTechniques: []technique.MitreTechnique{
					{
						TechniqueID:   "T1590",
						TechniqueName: "Gather Victim Network Information",
						Tactics:       []string{"Reconnaissance"},
					},
				},
			},
			Params: map[string]technique.ParameterSpec{
				"target_domain": {
					Name:        "target_domain",
					Type:        technique.ParamTypeString,
					Required:    true,
					DisplayName: "Target Domain",
					InputHint:   "text",
				},
			},
		},
		client:  client,
		baseURL: baseURL,
	}
}

func (t *reconDomainFederation) Execute(ctx context.Context, supplied map[string]any) technique.ExecutionResult {
	domain, _ := supplied["target_domain"].(string)

	endpoint := fmt.Sprintf("%s/getuserrealm.srf?login=user@%s&json=1", t.baseURL, url.QueryEscape(domain))
	body, status, err := getJSON(ctx, t.client, endpoint)
	if err != nil {
		return technique.NewFailureResult("Failed to recon domain federation", err.Error())
	}
	if status != http.StatusOK {
		return technique.NewFailureResult("Failed to recon domain federation",
			fmt.Sprintf("unexpected status %d", status))
	}

	namespaceType, _ := body["NameSpaceType"].(string)
	if namespaceType == "" || namespaceType == "Unknown" {
		return technique.NewPartialSuccessResult(
			"Domain is not a known Microsoft tenant domain", body)
	}

	return technique.NewSuccessResult("Successfully gathered domain federation information", map[string]any{
		"domain_name":    domain,
		"namespace_type": namespaceType,
		"federation":     body["AuthURL"],
		"brand_name":     body["FederationBrandName"],
	})
}

// getJSON performs a GET request and decodes the JSON response body.
func getJSON(ctx context.Context, client *http.Client, endpoint string) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	return doJSON(client, req)
}

// postJSON performs a POST request with a JSON body and decodes the
// JSON response.
func postJSON(ctx context.Context, client *http.Client, endpoint string, payload []byte) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(client, req)
}

func doJSON(client *http.Client, req *http.Request) (map[string]any, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	body := make(map[string]any)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("invalid JSON response: %w", err)
		}
	}
	return body, resp.StatusCode, nil
}
