package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"slicehouse.ai/internal/protocol"
	"slicehouse.ai/internal/sim/shop"
	"slicehouse.ai/internal/sim/tuning"
)

func TestStateHandler(t *testing.T) {
	tune := tuning.Defaults()
	sh, err := shop.New(shop.ConfigFromTuning("shop_obs", tune), tune, nil, nil)
	if err != nil {
		t.Fatalf("shop.New: %v", err)
	}
	sh.StepOnce(nil)
	srv := NewServer(sh, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	srv.StateHandler()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var st protocol.StateMsg
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.ShopID != "shop_obs" || st.Tick != 0 || st.Type != protocol.TypeState {
		t.Fatalf("state %+v", st)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	srv.StateHandler()(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-loopback status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	srv.StateHandler()(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post status=%d", rec.Code)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:80": true,
		"[::1]:80":     true,
		"10.0.0.1:80":  false,
		"garbage":      false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
}
