package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Account is a credential the fake portal accepts.
type Account struct {
	ID       int
	Username string
	Email    string
	Password string
}

// FakePortal is an in-process stand-in for the portal backend. It speaks
// the same JSON endpoints and issues the same session cookie, with one
// fixed one-time code per login attempt.
type FakePortal struct {
	Server *httptest.Server

	mu        sync.Mutex
	accounts  map[string]Account // keyed by username and email
	pending   map[string]string  // identifier -> expected code
	sessions  map[string]Account // session token -> account
	tokens    map[string]Account // reset token -> account
	customers []map[string]any
	nextToken int

	OTPCode     string
	LoginCalls  int
	ForgotCalls []string
}

// NewFakePortal starts the fake with the given accounts.
func NewFakePortal(accounts ...Account) *FakePortal {
	p := &FakePortal{
		accounts: make(map[string]Account),
		pending:  make(map[string]string),
		sessions: make(map[string]Account),
		tokens:   make(map[string]Account),
		OTPCode:  "123456",
	}
	for _, a := range accounts {
		p.accounts[a.Username] = a
		p.accounts[a.Email] = a
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", p.handleLogin)
	mux.HandleFunc("POST /api/login/mfa", p.handleLoginMFA)
	mux.HandleFunc("GET /api/me", p.handleMe)
	mux.HandleFunc("POST /api/logout", p.handleLogout)
	mux.HandleFunc("POST /api/register", p.handleRegister)
	mux.HandleFunc("POST /api/password/forgot", p.handleForgot)
	mux.HandleFunc("POST /api/password/reset", p.handleReset)
	mux.HandleFunc("POST /api/password/change", p.handleChange)
	mux.HandleFunc("GET /api/policy", p.handlePolicy)
	mux.HandleFunc("GET /api/customers/search", p.handleSearch)
	mux.HandleFunc("POST /api/customers", p.handleCreateCustomer)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	p.Server = httptest.NewServer(mux)
	return p
}

// URL returns the fake's base URL.
func (p *FakePortal) URL() string { return p.Server.URL }

// Close shuts the fake down.
func (p *FakePortal) Close() { p.Server.Close() }

// IssueResetToken mints a reset token for the account with the given email.
func (p *FakePortal) IssueResetToken(email string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := fmt.Sprintf("reset-%d", p.nextToken)
	p.nextToken++
	p.tokens[token] = p.accounts[email]
	return token
}

func (p *FakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.LoginCalls++

	account, ok := p.accounts[req.ID]
	if !ok || account.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}
	p.pending[req.ID] = p.OTPCode
	writeJSON(w, http.StatusOK, map[string]any{
		"mfa_required": true,
		"method":       "email_otp",
		"expires_in":   5,
	})
}

func (p *FakePortal) handleLoginMFA(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	expected, ok := p.pending[req.ID]
	if !ok || expected != req.Code {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid or expired code"})
		return
	}
	delete(p.pending, req.ID)

	token := fmt.Sprintf("session-%d", p.nextToken)
	p.nextToken++
	p.sessions[token] = p.accounts[req.ID]

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged in"})
}

func (p *FakePortal) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := p.sessionAccount(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  account.ID,
		"username": account.Username,
	})
}

func (p *FakePortal) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session"); err == nil {
		p.mu.Lock()
		delete(p.sessions, cookie.Value)
		p.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (p *FakePortal) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[req.Username]; exists {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "username already taken"})
		return
	}
	account := Account{ID: 1000 + len(p.accounts), Username: req.Username, Email: req.Email, Password: req.Password}
	p.accounts[req.Username] = account
	p.accounts[req.Email] = account
	writeJSON(w, http.StatusCreated, map[string]any{"message": "verification mail sent"})
}

func (p *FakePortal) handleForgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	p.ForgotCalls = append(p.ForgotCalls, req.Email)
	p.mu.Unlock()

	// Same response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]any{"message": "if this email exists, a reset link has been sent"})
}

func (p *FakePortal) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.tokens[req.Token]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid or expired token"})
		return
	}
	delete(p.tokens, req.Token)
	account.Password = req.NewPassword
	p.accounts[account.Username] = account
	p.accounts[account.Email] = account
	writeJSON(w, http.StatusOK, map[string]any{"message": "password reset"})
}

func (p *FakePortal) handleChange(w http.ResponseWriter, r *http.Request) {
	account, ok := p.sessionAccount(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}
	if req.OldPassword != account.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "old password is incorrect"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "check your email to confirm the change"})
}

func (p *FakePortal) handlePolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"min_length":      10,
		"require_upper":   true,
		"require_lower":   true,
		"require_digit":   true,
		"require_special": true,
	})
}

func (p *FakePortal) handleSearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.sessionAccount(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	q := strings.ToLower(r.URL.Query().Get("q"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size < 1 {
		size = 20
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	matched := make([]map[string]any, 0)
	for _, c := range p.customers {
		if q == "" || strings.Contains(strings.ToLower(c["name"].(string)), q) {
			matched = append(matched, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": matched,
		"page":  page,
		"size":  size,
		"total": len(matched),
	})
}

func (p *FakePortal) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.sessionAccount(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "name is required"})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	record := map[string]any{
		"id":    int64(len(p.customers) + 1),
		"name":  req.Name,
		"email": req.Email,
		"phone": req.Phone,
		"notes": req.Notes,
	}
	p.customers = append(p.customers, record)
	writeJSON(w, http.StatusCreated, record)
}

func (p *FakePortal) sessionAccount(r *http.Request) (Account, bool) {
	cookie, err := r.Cookie("session")
	if err != nil {
		return Account{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.sessions[cookie.Value]
	return account, ok
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
