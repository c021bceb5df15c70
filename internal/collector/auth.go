package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"StockRanker/internal/model"
)

// Token logs in to the widget API with a SAML assertion issued by the LSE
// site and returns the session JWT. Tokens are not cached; callers fetch
// one per batch.
func (c *LSEClient) Token(ctx context.Context) (string, error) {
	saml, err := c.samlAssertion(ctx)
	if err != nil {
		return "", fmt.Errorf("saml assertion: %w: %w", model.ErrAuth, err)
	}

	form := "SAMLResponse=" + url.QueryEscape(saml)
	req, err := http.NewRequest(http.MethodPost,
		c.widgetsURL+"/auth/api/v1/sessions/samllogin?fetchToken=true", strings.NewReader(form))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://www.londonstockexchange.com/")

	body, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("saml login: %w: %w", model.ErrAuth, err)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode login: %w: %w", model.ErrAuth, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response: token %w: %w", errNoField, model.ErrAuth)
	}
	c.log.Debug().Msg("session token acquired")
	return resp.Token, nil
}

func (c *LSEClient) samlAssertion(ctx context.Context) (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.lseURL+"/gw/feedhandler/token/saml", nil)
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	var resp struct {
		EncodedToken string `json:"encodedToken"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode saml: %w", err)
	}
	if resp.EncodedToken == "" {
		return "", fmt.Errorf("saml response: encodedToken %w", errNoField)
	}
	return resp.EncodedToken, nil
}
