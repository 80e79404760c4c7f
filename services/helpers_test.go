package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	"github.com/sahilchouksey/codelearn-api/services/storage"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testRazorpayKeyID  = "rzp_test_key"
	testRazorpaySecret = "rzp_test_secret"
)

// fakeMailer records every message and answers with result
type fakeMailer struct {
	mu     sync.Mutex
	sent   []mailer.Message
	result mailer.Result
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{result: mailer.Sent("fake-1")}
}

func (m *fakeMailer) Name() string { return "fake" }

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) mailer.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.result
}

func (m *fakeMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

// testEnv is the full service graph over a throwaway database
type testEnv struct {
	db            *gorm.DB
	mail          *fakeMailer
	emails        *EmailService
	outbox        *Outbox
	catalog       *CatalogService
	coupons       *CouponService
	carts         *CartService
	orders        *OrderService
	invoices      *InvoiceService
	notifications *NotificationService
	fulfillment   *FulfillmentService
	configs       *PaymentConfigService
	payments      *PaymentService
	enrollments   *EnrollmentService
	auth          *AuthService
	twoFactor     *TwoFactorService
	proofs        storage.Storage
	gateway       *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	env := &testEnv{db: db, mail: newFakeMailer(), outbox: NewOutbox()}

	env.gateway = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Amount  int64  `json:"amount"`
			Receipt string `json:"receipt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(RazorpayOrder{
			ID:       "order_" + body.Receipt,
			Entity:   "order",
			Amount:   body.Amount,
			Currency: "INR",
			Receipt:  body.Receipt,
			Status:   "created",
		})
	}))
	t.Cleanup(env.gateway.Close)

	proofs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	env.proofs = proofs

	env.emails = NewEmailService(env.mail, EmailConfig{AppURL: "https://codelearn.test", AdminEmails: []string{"ops@codelearn.test"}})
	env.catalog = NewCatalogService(db, nil)
	env.coupons = NewCouponService(db)
	env.carts = NewCartService(db, env.coupons)
	env.orders = NewOrderService(db, env.carts)
	env.invoices = NewInvoiceService(db)
	env.notifications = NewNotificationService(db)
	env.fulfillment = NewFulfillmentService(db, env.invoices, env.coupons, env.notifications, env.outbox)
	env.configs = NewPaymentConfigService(db, "test-master-key", RazorpayCredentials{KeyID: testRazorpayKeyID, KeySecret: testRazorpaySecret})
	env.payments = NewPaymentService(PaymentDeps{
		DB:          db,
		Orders:      env.orders,
		Fulfillment: env.fulfillment,
		Configs:     env.configs,
		Razorpay:    NewRazorpayClient(env.gateway.URL),
		Storage:     proofs,
	})
	env.enrollments = NewEnrollmentService(db, env.catalog)
	env.auth = NewAuthService(db, env.outbox, env.emails)
	env.twoFactor = NewTwoFactorService(db, env.emails)
	return env
}

func (e *testEnv) student(t *testing.T, email string) *model.User {
	t.Helper()
	return testutil.CreateUser(t, e.db, email, model.RoleStudent)
}

func (e *testEnv) admin(t *testing.T) *model.User {
	t.Helper()
	return testutil.CreateUser(t, e.db, "admin@codelearn.test", model.RoleAdmin)
}

func (e *testEnv) fillCart(t *testing.T, user *model.User, courses ...*model.Course) {
	t.Helper()
	for _, c := range courses {
		_, err := e.carts.Add(context.Background(), user.ID, c.ID)
		require.NoError(t, err)
	}
}

// pngProof is the smallest payload http.DetectContentType reports as image/png
var pngProof = append([]byte("\x89PNG\x0D\x0A\x1A\x0A"), make([]byte, 64)...)
