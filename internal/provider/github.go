package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"authgate/internal/config"
	"authgate/internal/domain"
)

const defaultGitHubAPIBaseURL = "https://api.github.com"

// GitHubStrategy implements the authorization-code flow against GitHub.
type GitHubStrategy struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

func NewGitHub(creds config.ProviderCredentials) *GitHubStrategy {
	return &GitHubStrategy{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.CallbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     githuboauth.Endpoint,
		},
		apiBaseURL: defaultGitHubAPIBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GitHubStrategy) Name() string {
	return "github"
}

// AuthCodeURL returns the GitHub authorization page URL carrying the given state
func (s *GitHubStrategy) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// githubProfile is the shape of the /user endpoint response. GitHub subject
// ids are numeric; the store key is a string, so the id is coerced below.
type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Complete exchanges the authorization code and normalizes the GitHub profile.
// Email resolution: first address from /user/emails, else the profile's own
// email field, else empty. A user with a private email still logs in.
func (s *GitHubStrategy) Complete(ctx context.Context, code string) (*domain.Draft, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, fmt.Errorf("github profile has no subject id")
	}

	email := s.resolveEmail(ctx, token.AccessToken, profile)

	name := profile.Name
	if name == "" {
		name = profile.Login
	}

	return &domain.Draft{
		Email:      email,
		Name:       name,
		Provider:   s.Name(),
		ProviderID: strconv.FormatInt(profile.ID, 10),
		AvatarURL:  profile.AvatarURL,
	}, nil
}

func (s *GitHubStrategy) fetchProfile(ctx context.Context, accessToken string) (*githubProfile, error) {
	body, status, err := s.apiGet(ctx, accessToken, "/user")
	if err != nil {
		return nil, fmt.Errorf("github user request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("github user endpoint returned status %d", status)
	}

	var profile githubProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse github profile: %w", err)
	}

	return &profile, nil
}

// resolveEmail applies the email fallback chain. Errors from the emails
// endpoint degrade to the profile email rather than failing the login.
func (s *GitHubStrategy) resolveEmail(ctx context.Context, accessToken string, profile *githubProfile) string {
	body, status, err := s.apiGet(ctx, accessToken, "/user/emails")
	if err == nil && status == http.StatusOK {
		var emails []githubEmail
		if err := json.Unmarshal(body, &emails); err == nil && len(emails) > 0 {
			return emails[0].Email
		}
	}
	return profile.Email
}

func (s *GitHubStrategy) apiGet(ctx context.Context, accessToken, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}

var _ Strategy = (*GitHubStrategy)(nil)
