package httpadapter

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/hint"
	"github.com/blackhole-game/blackhole/internal/scheduler"
	"github.com/blackhole-game/blackhole/internal/usecase"
	"github.com/blackhole-game/blackhole/internal/validator"
)

type fixture struct {
	srv   *httptest.Server
	sched *scheduler.Manual
	hub   *Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{sched: scheduler.NewManual(), hub: NewHub(nil)}
	ss := usecase.NewSessions(func(id string) *usecase.Service {
		return usecase.NewService(f.sched, validator.New(), hint.NewRisk(), rand.New(rand.NewSource(1)), f.hub.Renderer(id))
	}, 0)
	mux := http.NewServeMux()
	New(ss, f.hub, nil).Register(mux)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (f *fixture) create(t *testing.T, body string) string {
	t.Helper()
	var cr createResp
	if code := f.do(t, http.MethodPost, "/api/games", body, &cr); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if cr.ID == "" || cr.State.Snapshot.Filled != 0 {
		t.Fatalf("create = %+v", cr)
	}
	return cr.ID
}

func TestPlayFullGameOverHTTP(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, `{"mode":"pvp"}`)

	var er errorResp
	if code := f.do(t, http.MethodGet, "/api/games/"+id+"/results", "", &er); code != http.StatusConflict {
		t.Fatalf("results before end: status %d", code)
	}
	var hr hintResp
	if code := f.do(t, http.MethodGet, "/api/games/"+id+"/hint", "", &hr); code != http.StatusOK || !hr.Found {
		t.Fatalf("hint: status %d found %v", code, hr.Found)
	}

	for cell := 0; cell < 20; cell++ {
		var mr moveResp
		code := f.do(t, http.MethodPost, "/api/games/"+id+"/move", `{"cell":`+itoa(cell)+`}`, &mr)
		if code != http.StatusOK || !mr.Applied {
			t.Fatalf("move %d: status %d applied %v", cell, code, mr.Applied)
		}
	}
	var mr moveResp
	f.do(t, http.MethodPost, "/api/games/"+id+"/move", `{"cell":20}`, &mr)
	if mr.Applied {
		t.Fatal("move after game over applied")
	}

	var rr resultsResp
	if code := f.do(t, http.MethodGet, "/api/games/"+id+"/results", "", &rr); code != http.StatusOK {
		t.Fatalf("results status %d", code)
	}
	if rr.Results.BlackHole != 20 || rr.Results.Outcome != domain.Player1Wins {
		t.Fatalf("results = %+v", rr.Results)
	}

	var sr stateResp
	f.do(t, http.MethodPost, "/api/games/"+id+"/reset", "", &sr)
	if sr.State.Snapshot.Filled != 0 || sr.State.Results != nil {
		t.Fatalf("reset state = %+v", sr.State)
	}
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "")
	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown game", http.MethodGet, "/api/games/nope", "", http.StatusNotFound},
		{"bad mode", http.MethodPost, "/api/games", `{"mode":"online"}`, http.StatusBadRequest},
		{"bad difficulty", http.MethodPost, "/api/games/" + id + "/difficulty", `{"difficulty":"hard"}`, http.StatusBadRequest},
		{"missing cell", http.MethodPost, "/api/games/" + id + "/move", `{}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/games/" + id + "/move", `{cell`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var er errorResp
			if code := f.do(t, tc.method, tc.path, tc.body, &er); code != tc.want {
				t.Fatalf("status = %d, want %d", code, tc.want)
			}
			if er.Error == "" {
				t.Fatal("missing error message")
			}
		})
	}
}

func TestModeDifficultyAndDelete(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, `{"mode":"pvp"}`)
	var sr stateResp
	f.do(t, http.MethodPost, "/api/games/"+id+"/mode", `{"mode":"pvc"}`, &sr)
	if sr.State.Config.Mode != domain.HumanVsComputer {
		t.Fatalf("mode = %v", sr.State.Config.Mode)
	}
	f.do(t, http.MethodPost, "/api/games/"+id+"/difficulty", `{"difficulty":"medium"}`, &sr)
	if sr.State.Config.Difficulty != domain.Medium || sr.State.Config.Mode != domain.HumanVsComputer {
		t.Fatalf("config = %+v", sr.State.Config)
	}
	if code := f.do(t, http.MethodDelete, "/api/games/"+id, "", nil); code != http.StatusNoContent {
		t.Fatalf("delete status %d", code)
	}
	if code := f.do(t, http.MethodGet, "/api/games/"+id, "", &errorResp{}); code != http.StatusNotFound {
		t.Fatalf("state after delete: status %d", code)
	}
}

func TestWebsocketPushesComputerMove(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, `{"mode":"pvc","difficulty":"easy"}`)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/games/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() wsMessage {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}
	if msg := read(); msg.Kind != "state" || msg.State == nil {
		t.Fatalf("first message = %+v", msg)
	}

	if err := conn.WriteJSON(wsCommand{Type: "move", Cell: 0}); err != nil {
		t.Fatal(err)
	}
	if msg := read(); msg.Update == nil || msg.Update.Kind != domain.UpdateMove || msg.Update.Cell.ID != 0 {
		t.Fatalf("expected human move update, got %+v", msg)
	}
	if msg := read(); msg.Update == nil || msg.Update.Kind != domain.UpdateThinking || !msg.Update.Display.Thinking {
		t.Fatalf("expected thinking update, got %+v", msg)
	}

	f.sched.RunPending()
	msg := read()
	if msg.Update == nil || msg.Update.Kind != domain.UpdateMove || msg.Update.Cell.Player != domain.Player2 {
		t.Fatalf("expected computer move update, got %+v", msg)
	}
	if msg.Update.Snapshot.Filled != 2 {
		t.Fatalf("filled = %d, want 2", msg.Update.Snapshot.Filled)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
