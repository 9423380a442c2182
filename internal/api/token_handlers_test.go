package api

import (
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/codxp/server/internal/testutil"
	"github.com/codxp/server/internal/user"
)

func TestGetTokens_NewUserIsZeroed(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	rr := srv.helper.MakeRequestWithHeaders("GET", "/api/tokens", nil, testutil.BearerHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var tokens user.TokenSet
	if err := testutil.DecodeJSON(rr.Body, &tokens); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if !reflect.DeepEqual(tokens, user.ZeroTokens()) {
		t.Errorf("tokens = %v, want zeroed set", tokens)
	}
}

func TestUpdateTokens_RoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	rr := srv.helper.MakeRequestWithHeaders("PUT", "/api/tokens",
		map[string]any{"weapon": []int{1, 2}}, testutil.BearerHeader(token))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update status = %d, want %d (%s)", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	rr = srv.helper.MakeRequestWithHeaders("GET", "/api/tokens", nil, testutil.BearerHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rr.Code, http.StatusOK)
	}

	var tokens user.TokenSet
	if err := testutil.DecodeJSON(rr.Body, &tokens); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	want := user.TokenSet{
		"regular":    {0, 0, 0, 0},
		"weapon":     {1, 2, 0, 0},
		"battlepass": {0, 0, 0, 0},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}
}

func TestUpdateTokens_AllCategories(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	rr := srv.helper.MakeRequestWithHeaders("PUT", "/api/tokens",
		testutil.FullTokenSet(2), testutil.BearerHeader(token))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update status = %d, want %d (%s)", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	record, err := srv.store.Load("alice")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	for _, cat := range user.Categories {
		for i, count := range record.Tokens[cat] {
			if count != 2 {
				t.Errorf("tokens[%s][%d] = %d, want 2", cat, i, count)
			}
		}
	}
}

func TestUpdateTokens_CoercesMessyPayload(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	body := map[string]any{
		"regular": []any{"3", -1, 2.9, nil},
		"ignored": []int{9, 9, 9, 9},
	}
	rr := srv.helper.MakeRequestWithHeaders("PUT", "/api/tokens", body, testutil.BearerHeader(token))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update status = %d, want %d (%s)", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	record, err := srv.store.Load("alice")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got, want := record.Tokens["regular"], []int{3, 0, 2, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("regular = %v, want %v", got, want)
	}
	if _, ok := record.Tokens["ignored"]; ok {
		t.Error("unknown category survived normalization")
	}
}

func TestUpdateTokens_InvalidJSON(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	headers := testutil.BearerHeader(token)
	headers["Content-Type"] = "application/json"
	rr := srv.helper.MakeRequestWithHeaders("PUT", "/api/tokens", "not an object", headers)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateTokens_NullBody(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	rr := srv.helper.MakeRequestWithHeaders("PUT", "/api/tokens",
		map[string]any{"regular": []int{1, 2, 3, 4}}, testutil.BearerHeader(token))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("seed update status = %d", rr.Code)
	}

	// A literal null body must not pass the decode guard and wipe the set.
	rr = srv.helper.MakeRequestWithHeaders("PUT", "/api/tokens",
		json.RawMessage("null"), testutil.BearerHeader(token))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("null body status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	record, err := srv.store.Load("alice")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !reflect.DeepEqual(record.Tokens["regular"], []int{1, 2, 3, 4}) {
		t.Errorf("regular = %v after rejected update, want [1 2 3 4]", record.Tokens["regular"])
	}
}

func TestTokens_RequireAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, method := range []string{"GET", "PUT"} {
		rr := srv.helper.MakeRequest(method, "/api/tokens", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want %d", method, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestTokens_UnknownUser(t *testing.T) {
	srv := newTestServer(t)

	// A valid token whose subject has no stored record.
	ghost, err := srv.tokens.Issue("ghost")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	rr := srv.helper.MakeRequestWithHeaders("GET", "/api/tokens", nil, testutil.BearerHeader(ghost))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestTokens_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	rr := srv.helper.MakeRequestWithHeaders("DELETE", "/api/tokens", nil, testutil.BearerHeader(token))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
	if allow := rr.Header().Get("Allow"); allow == "" {
		t.Error("405 response missing Allow header")
	}
}

func TestGetSummary(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice", "hunter2")

	// 2x15 + 1x60 regular, 1x30 weapon: 120 minutes total.
	rr := srv.helper.MakeRequestWithHeaders("PUT", "/api/tokens", map[string]any{
		"regular": []int{2, 0, 0, 1},
		"weapon":  []int{0, 1, 0, 0},
	}, testutil.BearerHeader(token))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update status = %d (%s)", rr.Code, rr.Body.String())
	}

	rr = srv.helper.MakeRequestWithHeaders("GET", "/api/tokens/summary", nil, testutil.BearerHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var summary user.Summary
	if err := testutil.DecodeJSON(rr.Body, &summary); err != nil {
		t.Fatalf("decoding summary failed: %v", err)
	}
	if summary.TotalMinutes != 120 {
		t.Errorf("TotalMinutes = %d, want 120", summary.TotalMinutes)
	}
	if summary.Categories["regular"].Minutes != 90 {
		t.Errorf("regular minutes = %d, want 90", summary.Categories["regular"].Minutes)
	}
	if summary.Categories["battlepass"].Minutes != 0 {
		t.Errorf("battlepass minutes = %d, want 0", summary.Categories["battlepass"].Minutes)
	}
}
