package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"hashvault/escrow/internal/models"

	"github.com/rs/zerolog"
)

func newTestApi(t *testing.T) (*httptest.Server, *testEscrow) {
	t.Helper()
	te := newTestEscrow(t)
	api := NewApiService(te.svc, ":0", zerolog.Nop())
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv, te
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("POST %s error: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestApi_SwapRoundTrip(t *testing.T) {
	srv, te := newTestApi(t)

	resp := postJSON(t, srv.URL+"/deposits", createDepositRequest{
		Caller: alice,
		Kind:   models.AssetNative,
		Amount: big.NewInt(100),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create deposit: status %d", resp.StatusCode)
	}
	var created idResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	resp = postJSON(t, fmt.Sprintf("%s/deposits/%d/receivers", srv.URL, created.ID), addReceiverRequest{
		Caller:          alice,
		Amount:          big.NewInt(40),
		Receiver:        bob,
		Commitment:      commitment,
		ValiditySeconds: 300,
		Memo:            "swap leg 1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add receiver: status %d", resp.StatusCode)
	}
	var addressed idResponse
	if err := json.NewDecoder(resp.Body).Decode(&addressed); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	resp = postJSON(t, fmt.Sprintf("%s/addressed/%d/claim", srv.URL, addressed.ID), claimRequest{
		Caller: bob,
		Secret: string(secret),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim: status %d", resp.StatusCode)
	}
	if len(te.gateway.Sends) != 1 {
		t.Fatalf("expected one transfer, got %d", len(te.gateway.Sends))
	}

	getResp, err := http.Get(fmt.Sprintf("%s/addressed/%d", srv.URL, addressed.ID))
	if err != nil {
		t.Fatalf("GET addressed error: %v", err)
	}
	defer getResp.Body.Close()
	var ad models.AddressedDeposit
	if err := json.NewDecoder(getResp.Body).Decode(&ad); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if ad.Active || ad.Closed != models.ClosedClaimed {
		t.Fatalf("expected inactive/claimed, got active=%v closed=%q", ad.Active, ad.Closed)
	}
	if ad.Memo != "swap leg 1" {
		t.Fatalf("memo not carried through: got %q", ad.Memo)
	}

	// terminal: a refund of the claimed deposit conflicts
	resp = postJSON(t, fmt.Sprintf("%s/addressed/%d/refund", srv.URL, addressed.ID), callerRequest{Caller: alice})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("refund after claim: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestApi_ErrorMapping(t *testing.T) {
	srv, _ := newTestApi(t)

	resp, err := http.Get(srv.URL + "/deposits/99")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing deposit: status %d, want 404", resp.StatusCode)
	}

	resp2 := postJSON(t, srv.URL+"/deposits", createDepositRequest{
		Caller: alice,
		Kind:   models.AssetNative,
		Amount: big.NewInt(0),
	})
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("zero amount: status %d, want %d", resp2.StatusCode, http.StatusConflict)
	}

	resp3 := postJSON(t, srv.URL+"/deposits", createDepositRequest{
		Caller: alice,
		Kind:   "bogus",
		Amount: big.NewInt(1),
	})
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad kind: status %d, want 400", resp3.StatusCode)
	}
}
