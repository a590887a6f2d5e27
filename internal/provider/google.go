package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"authgate/internal/config"
	"authgate/internal/domain"
)

const defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleStrategy implements the authorization-code flow against Google.
type GoogleStrategy struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogle(creds config.ProviderCredentials) *GoogleStrategy {
	return &GoogleStrategy{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.CallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: defaultGoogleUserInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GoogleStrategy) Name() string {
	return "google"
}

// AuthCodeURL returns the Google consent page URL carrying the given state
func (s *GoogleStrategy) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// googleProfile is the shape of the userinfo endpoint response
type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Complete exchanges the authorization code and normalizes the Google profile.
// A missing email never fails the login; the draft just carries an empty one.
func (s *GoogleStrategy) Complete(ctx context.Context, code string) (*domain.Draft, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("google profile has no subject id")
	}

	return &domain.Draft{
		Email:      profile.Email,
		Name:       profile.Name,
		Provider:   s.Name(),
		ProviderID: profile.ID,
		AvatarURL:  profile.Picture,
	}, nil
}

func (s *GoogleStrategy) fetchProfile(ctx context.Context, accessToken string) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}

	return &profile, nil
}

var _ Strategy = (*GoogleStrategy)(nil)
