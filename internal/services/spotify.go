// Spotify API implementation of [Service]
//
// Endpoint shapes based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify allows bursts but throttles sustained traffic; a paginated
	// collection pass issues one request per page, so a conservative
	// steady rate keeps long walks out of 429 territory.
	requestsPerSecond = 8
)

// page mirrors the common paginated envelope: only the items matter,
// everything else (total, next, ...) is derivable from page emptiness.
type page struct {
	Items []json.RawMessage `json:"items"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and token refresh, and throttles all
// requests through a shared [rate.Limiter].
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMisconfigured)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMisconfigured)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-library-read",
			"user-library-modify",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		baseURL:    spotifyBaseURL,
	}, nil
}

// Authenticate primes the service from credentials. Accepts either a
// saved "access_token" (with optional "refresh_token") or a fresh
// "auth_code" to exchange.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrNotAuthenticated)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the underlying OAuth2 config for the callback
// server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated, rate-limited HTTP request to the
// Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned status %d", shared.ErrAPIRequest, method, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchPage retrieves one raw page for the given operation.
func (s *SpotifyService) FetchPage(ctx context.Context, op models.Operation, subKey string, limit, offset int) (models.Page, error) {
	var endpoint string
	switch op {
	case models.OpPlaylists:
		endpoint = fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
	case models.OpPlaylistTracks:
		if subKey == "" {
			return nil, fmt.Errorf("%w: playlist id required for %s", shared.ErrMissingArgument, op)
		}
		endpoint = fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", subKey, limit, offset)
	case models.OpSavedTracks:
		endpoint = fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)
	default:
		return nil, fmt.Errorf("unknown fetch operation %q", op)
	}

	var response page
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return models.Page(response.Items), nil
}

// CreatePlaylist creates a new private playlist for ownerID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, ownerID, name, description string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", ownerID)
	body := map[string]any{
		"name":   name,
		"public": false,
	}
	if description != "" {
		body["description"] = description
	}

	var playlist models.Playlist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ReplaceTracks atomically sets the playlist contents to trackIDs.
func (s *SpotifyService) ReplaceTracks(ctx context.Context, ownerID, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	body := map[string]any{"uris": trackURIs(trackIDs)}
	return s.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// AddTracks appends trackIDs to the playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, ownerID, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	body := map[string]any{"uris": trackURIs(trackIDs)}
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// trackURIs converts bare track ids to spotify:track: URIs, leaving
// already-qualified URIs untouched.
func trackURIs(trackIDs []string) []string {
	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		if strings.HasPrefix(id, "spotify:") {
			uris = append(uris, id)
			continue
		}
		uris = append(uris, "spotify:track:"+id)
	}
	return uris
}
