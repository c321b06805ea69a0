package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haitiwallet/console/libs/auth"
	"github.com/haitiwallet/console/libs/httpmiddleware"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/shopspring/decimal"
)

// FakeBackend is an in-memory wallet API served over httptest. Tokens are HS256
// JWTs signed with TestSecret; sub names the account.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	accounts map[string]*fakeAccount
	partners []backend.Partner
	topups   []backend.TopupRequest
	txs      map[string][]backend.Transaction
	nextID   int64
	requests []string
	reqIDs   []string
}

type fakeAccount struct {
	user     backend.User
	password string
	wallet   backend.Amounts
}

func NewFakeBackend() *FakeBackend {
	gin.SetMode(gin.TestMode)
	f := &FakeBackend{
		accounts: map[string]*fakeAccount{},
		txs:      map[string][]backend.Transaction{},
		nextID:   100,
	}
	f.AddAccount(DemoEmail, DemoPassword, backend.RoleUser)
	f.AddAccount(AdminEmail, DemoPassword, backend.RoleAdmin)
	f.AddAccount(SuperadminEmail, DemoPassword, backend.RoleSuperadmin)

	r := gin.New()
	r.Use(f.record)
	r.POST("/auth/login", f.login)

	authed := r.Group("/", f.authenticate)
	authed.GET("/auth/me", f.me)
	authed.PUT("/auth/me", f.updateMe)
	authed.GET("/admin/fx", func(c *gin.Context) {
		c.JSON(http.StatusOK, backend.FXRates{SellUSD: decimal.NewFromInt(134), BuyUSD: decimal.NewFromInt(126)})
	})
	authed.GET("/wallet/transactions", f.transactions)
	authed.POST("/wallet/transfer", f.transfer)
	authed.GET("/topups/mine", f.myTopups)
	authed.POST("/topups/request", f.createTopup)
	authed.GET("/partners", f.listPartners)

	admin := authed.Group("/", requireRole(backend.Role.IsAdmin))
	admin.GET("/topups/pending", f.pendingTopups)
	admin.POST("/topups/:id/decide", f.decideTopup)
	admin.GET("/partners/admin", f.listPartners)
	admin.POST("/partners/:id/active", f.partnerActive)
	admin.GET("/admin/stats", f.stats)

	super := authed.Group("/superadmin", requireRole(backend.Role.IsSuperadmin))
	super.GET("/users", f.users)
	super.POST("/users/:id/role", f.setRole)
	super.POST("/users/:id/status", f.setStatus)
	super.DELETE("/users/:id", f.deleteUser)
	super.POST("/users/:id/impersonate", f.impersonate)

	f.Server = httptest.NewServer(r)
	return f
}

func (f *FakeBackend) URL() string { return f.Server.URL }

func (f *FakeBackend) Close() { f.Server.Close() }

func (f *FakeBackend) AddAccount(email, password string, role backend.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.accounts[email] = &fakeAccount{
		user:     backend.User{ID: f.nextID, Email: email, Role: role, Status: backend.UserActive},
		password: password,
		wallet:   backend.Amounts{HTG: decimal.NewFromInt(1000), USD: decimal.NewFromInt(10)},
	}
}

func (f *FakeBackend) AddPartner(p backend.Partner) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partners = append(f.partners, p)
}

func (f *FakeBackend) AddTopup(t backend.TopupRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topups = append(f.topups, t)
}

// Token signs a fresh access token for email.
func (f *FakeBackend) Token(email string) string {
	f.mu.Lock()
	role := ""
	if acc, ok := f.accounts[email]; ok {
		role = string(acc.user.Role)
	}
	f.mu.Unlock()
	token, err := GenerateJWT(email, role, TestSecret, time.Hour, time.Now())
	if err != nil {
		panic(err)
	}
	return token
}

// Requests lists "METHOD path" for every call received so far.
func (f *FakeBackend) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// RequestIDs lists the X-Request-ID header of every call, in order.
func (f *FakeBackend) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reqIDs...)
}

func (f *FakeBackend) Count(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r == method+" "+path {
			n++
		}
	}
	return n
}

func (f *FakeBackend) record(c *gin.Context) {
	f.mu.Lock()
	f.requests = append(f.requests, c.Request.Method+" "+c.Request.URL.Path)
	f.reqIDs = append(f.reqIDs, c.GetHeader(httpmiddleware.RequestIDHeader))
	f.mu.Unlock()
	c.Next()
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (f *FakeBackend) authenticate(c *gin.Context) {
	claims, err := auth.ParseJWT(auth.ExtractBearer(c.GetHeader("Authorization")), TestSecret)
	if err != nil {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	f.mu.Lock()
	acc, ok := f.accounts[claims.Subject]
	f.mu.Unlock()
	if !ok || acc.user.Status != backend.UserActive {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	c.Set("account", acc)
	c.Next()
}

func requireRole(allowed func(backend.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowed(account(c).user.Role) {
			detail(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

func account(c *gin.Context) *fakeAccount {
	return c.MustGet("account").(*fakeAccount)
}

func (f *FakeBackend) profile(acc *fakeAccount) backend.Profile {
	return backend.Profile{
		Email:  acc.user.Email,
		Role:   acc.user.Role,
		Wallet: acc.wallet,
	}
}

func (f *FakeBackend) login(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.PostForm("username")))
	f.mu.Lock()
	acc, ok := f.accounts[email]
	f.mu.Unlock()
	if !ok || acc.password != c.PostForm("password") {
		detail(c, http.StatusUnauthorized, "Identifiants invalides")
		return
	}
	c.JSON(http.StatusOK, backend.LoginResult{AccessToken: f.Token(email), TokenType: "bearer"})
}

func (f *FakeBackend) me(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, f.profile(account(c)))
}

func (f *FakeBackend) updateMe(c *gin.Context) {
	var req backend.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	f.mu.Lock()
	acc := account(c)
	acc.user.FirstName, acc.user.LastName, acc.user.Phone = req.FirstName, req.LastName, req.Phone
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (f *FakeBackend) transactions(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"items": f.txs[account(c).user.Email]})
}

func (f *FakeBackend) transfer(c *gin.Context) {
	var req backend.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	from := account(c)
	to, ok := f.accounts[req.ToEmail]
	if !ok {
		detail(c, http.StatusNotFound, "Destinataire introuvable")
		return
	}
	balance := &from.wallet.HTG
	target := &to.wallet.HTG
	if req.Currency == backend.CurrencyUSD {
		balance, target = &from.wallet.USD, &to.wallet.USD
	}
	if balance.LessThan(req.Amount) {
		detail(c, http.StatusBadRequest, "Solde insuffisant")
		return
	}
	*balance = balance.Sub(req.Amount)
	*target = target.Add(req.Amount)
	f.nextID++
	f.txs[from.user.Email] = append(f.txs[from.user.Email], backend.Transaction{
		ID: f.nextID, Type: "transfer_out", Currency: req.Currency, Amount: req.Amount.Neg(),
		Note: req.Note, CreatedAt: backend.NewTime(time.Now().UTC()),
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (f *FakeBackend) myTopups(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := account(c).user.Email
	out := []backend.TopupRequest{}
	for _, t := range f.topups {
		if t.UserEmail == email {
			out = append(out, t)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeBackend) createTopup(c *gin.Context) {
	var req backend.TopupCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := backend.TopupRequest{
		ID: f.nextID, UserEmail: account(c).user.Email, Status: backend.TopupPending,
		Amount: req.Amount, Currency: req.Currency, Method: req.Method, Reference: req.Reference,
		CreatedAt: backend.NewTime(time.Now().UTC()),
	}
	f.topups = append(f.topups, t)
	c.JSON(http.StatusOK, t)
}

func (f *FakeBackend) pendingTopups(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []backend.TopupRequest{}
	for _, t := range f.topups {
		if t.Status == backend.TopupPending {
			out = append(out, t)
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (f *FakeBackend) decideTopup(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var req backend.TopupDecision
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.topups {
		if f.topups[i].ID == id {
			if f.topups[i].Status != backend.TopupPending {
				detail(c, http.StatusBadRequest, "Déjà traitée")
				return
			}
			f.topups[i].Status = req.Status
			f.topups[i].AdminNote = req.AdminNote
			f.topups[i].DecidedAt = backend.NewTime(time.Now().UTC())
			c.JSON(http.StatusOK, f.topups[i])
			return
		}
	}
	detail(c, http.StatusNotFound, "Demande introuvable")
}

func (f *FakeBackend) listPartners(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, append([]backend.Partner{}, f.partners...))
}

func (f *FakeBackend) partnerActive(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	active, err := strconv.ParseBool(c.Query("active"))
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "active must be a boolean")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.partners {
		if f.partners[i].ID == id {
			f.partners[i].Active = active
			c.JSON(http.StatusOK, f.partners[i])
			return
		}
	}
	detail(c, http.StatusNotFound, "Partenaire introuvable")
}

func (f *FakeBackend) stats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	c.JSON(http.StatusOK, backend.AdminStats{
		PeriodDays: days,
		Fees:       backend.Amounts{HTG: decimal.RequireFromString("12.50"), USD: decimal.NewFromInt(3)},
	})
}

func (f *FakeBackend) users(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]backend.User, 0, len(f.accounts))
	for _, acc := range f.accounts {
		out = append(out, acc.user)
	}
	c.JSON(http.StatusOK, out)
}

// target resolves :id and refuses to touch superadmins.
func (f *FakeBackend) target(c *gin.Context) (*fakeAccount, bool) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	for _, acc := range f.accounts {
		if acc.user.ID == id {
			if acc.user.Role.IsSuperadmin() {
				detail(c, http.StatusForbidden, "Superadmin protégé")
				return nil, false
			}
			return acc, true
		}
	}
	detail(c, http.StatusNotFound, "Utilisateur introuvable")
	return nil, false
}

func (f *FakeBackend) setRole(c *gin.Context) {
	var req struct {
		Role backend.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Role != backend.RoleUser && req.Role != backend.RoleAdmin) {
		detail(c, http.StatusBadRequest, "Rôle invalide")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.target(c); ok {
		acc.user.Role = req.Role
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (f *FakeBackend) setStatus(c *gin.Context) {
	status := c.Query("status")
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.target(c); ok {
		acc.user.Status = status
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (f *FakeBackend) deleteUser(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.target(c); ok {
		delete(f.accounts, acc.user.Email)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (f *FakeBackend) impersonate(c *gin.Context) {
	f.mu.Lock()
	acc, ok := f.target(c)
	f.mu.Unlock()
	if ok {
		c.JSON(http.StatusOK, backend.ImpersonateResult{AccessToken: f.Token(acc.user.Email)})
	}
}
