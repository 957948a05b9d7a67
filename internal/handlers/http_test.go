package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"tycoon-exchange/internal/engine"
	"tycoon-exchange/internal/store/memory"
)

func testServer() *httptest.Server {
	e := engine.NewMatchingEngine(memory.New(), nil)
	r := mux.NewRouter()
	NewHandler(e).SetupRoutes(r)
	return httptest.NewServer(r)
}

func postOrder(t *testing.T, server *httptest.Server, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/order", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/order failed: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp, decoded
}

func TestHealthCheck(t *testing.T) {
	server := testServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestCreateOrderAndTrade(t *testing.T) {
	server := testServer()
	defer server.Close()

	resp, _ := postOrder(t, server,
		`{"side":"buy","market_type":"stock","company_id":"alphatech","price":"100","quantity":10,"owner":"alice"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	resp, body := postOrder(t, server,
		`{"side":"sell","market_type":"stock","company_id":"alphatech","price":"100","quantity":10,"owner":"bob"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	var trades []json.RawMessage
	if err := json.Unmarshal(body["trades"], &trades); err != nil {
		t.Fatalf("Failed to decode trades: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("Expected 1 trade from the crossing sell, got %d", len(trades))
	}

	// The trade shows up in the market's trade log.
	resp2, err := http.Get(server.URL + "/api/trades?type=stock&company=alphatech")
	if err != nil {
		t.Fatalf("GET /api/trades failed: %v", err)
	}
	defer resp2.Body.Close()
	var tradesBody struct {
		Trades []json.RawMessage `json:"trades"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&tradesBody); err != nil {
		t.Fatalf("Failed to decode trades response: %v", err)
	}
	if len(tradesBody.Trades) != 1 {
		t.Errorf("Expected 1 trade in the log, got %d", len(tradesBody.Trades))
	}

	// Both orders filled, so the book is empty.
	resp3, err := http.Get(server.URL + "/api/orderbook?type=stock&company=alphatech")
	if err != nil {
		t.Fatalf("GET /api/orderbook failed: %v", err)
	}
	defer resp3.Body.Close()
	var bookBody struct {
		Orders []json.RawMessage `json:"orders"`
	}
	if err := json.NewDecoder(resp3.Body).Decode(&bookBody); err != nil {
		t.Fatalf("Failed to decode orderbook response: %v", err)
	}
	if len(bookBody.Orders) != 0 {
		t.Errorf("Expected empty book, got %d orders", len(bookBody.Orders))
	}
}

func TestCreateOrderValidation(t *testing.T) {
	server := testServer()
	defer server.Close()

	cases := []string{
		`not json`,
		`{"side":"buy","market_type":"stock","company_id":"alphatech","price":"abc","quantity":10}`,
		`{"side":"buy","market_type":"stock","company_id":"alphatech","price":"-5","quantity":10}`,
		`{"side":"buy","market_type":"stock","company_id":"alphatech","price":"100","quantity":0}`,
		`{"side":"buy","market_type":"commodity","company_id":"alphatech","price":"100","quantity":10}`,
	}
	for i, body := range cases {
		resp, _ := postOrder(t, server, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Case %d: expected 400, got %d", i, resp.StatusCode)
		}
	}
}

func TestCancelOrder(t *testing.T) {
	server := testServer()
	defer server.Close()

	_, body := postOrder(t, server,
		`{"side":"buy","market_type":"stock","company_id":"alphatech","price":"100","quantity":10,"owner":"alice"}`)
	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body["order"], &order); err != nil {
		t.Fatalf("Failed to decode order: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/order/%s", server.URL, order.ID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 cancelling open order, got %d", resp.StatusCode)
	}

	// Second cancellation conflicts.
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 cancelling terminal order, got %d", resp.StatusCode)
	}

	// Unknown order.
	req, _ = http.NewRequest(http.MethodDelete, server.URL+"/api/order/no-such-order", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown order, got %d", resp.StatusCode)
	}
}

func TestMarketQueryValidation(t *testing.T) {
	server := testServer()
	defer server.Close()

	urls := []string{
		"/api/orderbook",
		"/api/orderbook?type=bond&company=alphatech",
		"/api/orderbook?type=stock",
		"/api/orderbook?type=commodity&company=alphatech",
		"/api/trades?type=stock&company=alphatech&limit=-1",
	}
	for _, u := range urls {
		resp, err := http.Get(server.URL + u)
		if err != nil {
			t.Fatalf("GET %s failed: %v", u, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s: expected 400, got %d", u, resp.StatusCode)
		}
	}
}
