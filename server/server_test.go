package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerica/cen/am"
	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/models"
)

func newTestServer(t *testing.T) (*Server, *ce.Store) {
	t.Helper()
	store := ce.NewStore("test")
	for _, outcome := range store.LoadModel(models.Core, "core") {
		require.True(t, outcome.Success(), "core: %s", outcome.Sentence)
	}
	require.True(t, store.Submit("conceptualise a ~ planet ~ P that has the value M as ~ moon count ~", "test").Success())
	return New(store, am.ServerConfig{Port: 0}), store
}

func postSentences(t *testing.T, handler http.Handler, body string) []map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sentences", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcomes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcomes))
	return outcomes
}

func TestHandleSentences(t *testing.T) {
	srv, store := newTestServer(t)
	mux := srv.Routes()

	outcomes := postSentences(t, mux, "there is a planet named 'Mars'\n\nthe planet 'Mars' has '2' as moon count\n")
	require.Len(t, outcomes, 2)
	assert.Equal(t, "new_instance", outcomes[0]["type"])
	assert.Equal(t, "edit_instance", outcomes[1]["type"])
	assert.Equal(t, "2", store.InstanceByName("Mars", nil).PropertyString("moon count"))
}

func TestHandleSentencesSubstitutesPlaceholders(t *testing.T) {
	srv, store := newTestServer(t)

	postSentences(t, srv.Routes(), "there is a tell card named '{uid}' that has the timestamp '{now}' as timestamp\n")
	cards := store.Instances("tell card", false)
	require.Len(t, cards, 1)
	assert.True(t, strings.HasPrefix(cards[0].Name(), "msg_"))
	assert.NotContains(t, cards[0].PropertyString("timestamp"), "{now}")
}

func TestHandleSentencesAnswersQuestions(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Routes()
	postSentences(t, mux, "there is a planet named 'Mars' that has '2' as moon count\n")

	outcomes := postSentences(t, mux, "what is Mars?\n")
	require.Len(t, outcomes, 1)
	assert.Equal(t, "answer", outcomes[0]["type"])
	assert.Contains(t, outcomes[0]["text"], "Mars is a planet.")
}

func TestHandleSentencesReportsFailures(t *testing.T) {
	srv, _ := newTestServer(t)

	outcomes := postSentences(t, srv.Routes(), "there is a wombat named 'W'\n")
	require.Len(t, outcomes, 1)
	assert.Equal(t, "failed", outcomes[0]["type"])
	assert.Contains(t, outcomes[0]["error"], "wombat")
}

func TestHandleConcepts(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/concepts", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var concepts []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &concepts))
	names := map[string]bool{}
	for _, c := range concepts {
		names[c["name"].(string)] = true
	}
	assert.True(t, names["planet"])
	assert.True(t, names["card"])
}

func TestHandleConceptByName(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/concepts/planet", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var concept map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &concept))
	assert.Equal(t, "planet", concept["name"])
	assert.Contains(t, concept["ce"], "conceptualise a ~ planet ~")

	req = httptest.NewRequest(http.MethodGet, "/concepts/wombat", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleInstancesFilter(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Routes()
	postSentences(t, mux, "there is a planet named 'Mars'\nthere is a planet named 'Venus'\n")

	req := httptest.NewRequest(http.MethodGet, "/instances?concept=planet", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var instances []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &instances))
	assert.Len(t, instances, 2)
}

func TestHandleCardsFiltersByAgent(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Routes()
	postSentences(t, mux,
		"there is a tell card named 'msg_a' that is to the agent 'alpha'\n"+
			"there is a tell card named 'msg_b' that is to the agent 'beta'\n")

	req := httptest.NewRequest(http.MethodGet, "/cards?agent=alpha", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "msg_a")
	assert.NotContains(t, body, "msg_b")
}

func TestHandleReset(t *testing.T) {
	srv, store := newTestServer(t)
	mux := srv.Routes()
	postSentences(t, mux, "there is a planet named 'Mars'\n")

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, store.ConceptCount())
	assert.Zero(t, store.InstanceCount())
}

func TestHandleHealth(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, store.ConceptCount(), health["concepts"])
}

func TestCORSHonorsAllowedOrigins(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.config.AllowedOrigins = []string{"http://good.example"}
	handler := srv.withCORS(srv.Routes())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://good.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://good.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDefaultsToWildcard(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.withCORS(srv.Routes())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.config.AllowedOrigins = []string{"http://good.example"}
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.Nil(t, conn)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	header = http.Header{"Origin": []string{"http://good.example"}}
	conn, _, err = websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	conn.Close()
}

func TestWebSocketFeedReceivesAcceptedSentences(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Let the server register the client before submitting
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.clients) == 1
	}, time.Second, 10*time.Millisecond)

	sentence := "there is a planet named 'Mars'"
	resp, err := http.Post(ts.URL+"/sentences", "text/plain", strings.NewReader(sentence))
	require.NoError(t, err)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, sentence, string(message))
}
