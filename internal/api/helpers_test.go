package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/codxp/server/internal/auth"
	"github.com/codxp/server/internal/config"
	"github.com/codxp/server/internal/logging"
	"github.com/codxp/server/internal/store"
	"github.com/codxp/server/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

// testServer wires the full route table against a throwaway data
// directory so handler tests go through the same middleware chain as
// production requests.
type testServer struct {
	helper *testutil.HTTPTestHelper
	tokens *auth.TokenService
	store  *store.Store
	hub    *Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DataDir:         t.TempDir(),
			DefaultUsername: "default",
		},
		Auth: config.AuthConfig{
			BCryptCost:      bcrypt.MinCost,
			TokenExpiration: time.Hour,
		},
	}

	st := store.New(cfg.Storage, logging.Nop())
	passwords := auth.NewPasswordService(cfg)
	accounts := auth.NewAccountService(st, passwords, logging.Nop())
	tokens, err := auth.NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService() failed: %v", err)
	}
	authHandlers := auth.NewHandlers(accounts, tokens, logging.Nop())

	hub := NewHub(logging.Nop())
	tokenHandlers := NewTokenHandlers(st, hub, logging.Nop())
	profileHandlers := NewProfileHandlers(st, logging.Nop())
	wsHandlers := NewWebSocketHandlers(hub, tokens, st, logging.Nop())

	mux := http.NewServeMux()
	SetupAuthRoutes(mux, authHandlers)
	SetupTokenRoutes(mux, authHandlers, tokenHandlers)
	SetupProfileRoutes(mux, authHandlers, profileHandlers)
	SetupWebSocketRoutes(mux, wsHandlers)

	return &testServer{
		helper: testutil.NewHTTPTestHelper(mux),
		tokens: tokens,
		store:  st,
		hub:    hub,
	}
}

// register creates a user through the API and returns its bearer token.
func (s *testServer) register(t *testing.T, username, password string) string {
	t.Helper()
	rr := s.helper.MakeRequest("POST", "/api/register",
		auth.CredentialsRequest{Username: username, Password: password})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %q status = %d (%s)", username, rr.Code, rr.Body.String())
	}
	var resp auth.TokenResponse
	if err := testutil.DecodeJSON(rr.Body, &resp); err != nil {
		t.Fatalf("decoding register response failed: %v", err)
	}
	return resp.Token
}
