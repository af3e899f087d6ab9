package applications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"intake/internal/payments"
	"intake/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const successBody = `{"status":true,"message":"Verification successful","data":{"status":"success","amount":50000,"currency":"NGN","customer":{"email":"jane@x.com"}}}`

type fakeVerifier struct {
	status int
	body   string
	err    error
	calls  []string
}

func (f *fakeVerifier) Verify(ctx context.Context, reference string) (*payments.Verification, error) {
	f.calls = append(f.calls, reference)
	if f.err != nil {
		return nil, f.err
	}
	v := &payments.Verification{StatusCode: f.status, Body: []byte(f.body)}
	var resp payments.VerifyResponse
	if err := json.Unmarshal([]byte(f.body), &resp); err != nil {
		v.ParseErr = err
	} else {
		v.Payload = &resp
	}
	return v, nil
}

type fakeNotifier struct {
	err      error
	receipts []*Receipt
}

func (n *fakeNotifier) ApplicationRecorded(ctx context.Context, r *Receipt) error {
	n.receipts = append(n.receipts, r)
	return n.err
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, v payments.Verifier, opener store.Opener, opts ...Option) *Service {
	t.Helper()
	cfg := Config{
		SecretKey:           "sk_test_configured",
		ConfirmationBaseURL: "https://apply.example.com/",
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(cfg, v, opener, zaptest.NewLogger(t).Sugar(), opts...)
}

func column(name string) int {
	for i, h := range Headers() {
		if h == name {
			return i
		}
	}
	return -1
}

func TestSubmit_EndToEnd(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	mem := store.NewMemoryStore()
	notifier := &fakeNotifier{}
	svc := newTestService(t, v, mem, WithNotifier(notifier))

	fields, err := ParseBody("application/json",
		[]byte(`{"Full Name":"Jane Doe","Email Address":"jane@x.com", "paymentRef":"ref123"}`))
	require.NoError(t, err)

	receipt, err := svc.Submit(context.Background(), fields)
	require.NoError(t, err)

	assert.Equal(t, &Receipt{
		Name:        "Jane Doe",
		Email:       "jane@x.com",
		Reference:   "ref123",
		Amount:      500,
		Currency:    "NGN",
		RedirectURL: "https://apply.example.com/thank-you?name=Jane+Doe&email=jane%40x.com&ref=ref123",
	}, receipt)
	assert.Contains(t, receipt.RedirectURL, "name=Jane+Doe&email=jane%40x.com&ref=ref123")
	assert.Equal(t, []string{"ref123"}, v.calls)

	rows := mem.Rows("", DefaultTableName)
	require.Len(t, rows, 2)
	assert.Equal(t, Headers(), rows[0])

	row := rows[1]
	assert.Equal(t, "Jane Doe", row[column("Full Name")])
	assert.Equal(t, "jane@x.com", row[column("Email Address")])
	assert.Equal(t, "500", row[column(ColumnAmount)])
	assert.Equal(t, "NGN", row[column(ColumnCurrency)])
	assert.Equal(t, "ref123", row[column(ColumnPaymentReference)])
	assert.Equal(t, "Success", row[column(ColumnVerificationStatus)])
	assert.Equal(t, "2026-10-18T09:30:00Z", row[column(ColumnTimestamp)])
	assert.Equal(t, "", row[column("Passport Number")])

	require.Len(t, notifier.receipts, 1)
	assert.Equal(t, receipt, notifier.receipts[0])
}

func TestSubmit_HeaderWrittenOnce(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	mem := store.NewMemoryStore()
	svc := newTestService(t, v, mem)

	for _, ref := range []string{"ref-1", "ref-2"} {
		_, err := svc.Submit(context.Background(), Fields{"reference": {ref}})
		require.NoError(t, err)
	}

	rows := mem.Rows("", DefaultTableName)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers(), rows[0])
	assert.Equal(t, "ref-1", rows[1][column(ColumnPaymentReference)])
	assert.Equal(t, "ref-2", rows[2][column(ColumnPaymentReference)])
}

func TestSubmit_DuplicateReferenceAppendsAgain(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	mem := store.NewMemoryStore()
	svc := newTestService(t, v, mem)

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(context.Background(), Fields{"paymentRef": {"same"}})
		require.NoError(t, err)
	}
	assert.Len(t, mem.Rows("", DefaultTableName), 3)
}

func TestSubmit_MissingReference(t *testing.T) {
	for _, fields := range []Fields{
		{},
		{"paymentRef": {""}},
		{"paymentRef": {"   "}, "reference": {"\t"}},
	} {
		v := &fakeVerifier{status: http.StatusOK, body: successBody}
		svc := newTestService(t, v, store.NewMemoryStore())

		_, err := svc.Submit(context.Background(), fields)
		assert.Equal(t, KindMissingReference, KindOf(err))
		assert.Empty(t, v.calls, "provider must not be called")
	}
}

func TestSubmit_ReferenceFallbackAndTrim(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	svc := newTestService(t, v, store.NewMemoryStore())

	r, err := svc.Submit(context.Background(), Fields{"paymentRef": {""}, "reference": {"  ref-x  "}})
	require.NoError(t, err)
	assert.Equal(t, "ref-x", r.Reference)
	assert.Equal(t, []string{"ref-x"}, v.calls)
}

func TestSubmit_PlaceholderSecret(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	svc := NewService(Config{SecretKey: payments.PlaceholderSecretKey}, v, store.NewMemoryStore(), nil)

	_, err := svc.Submit(context.Background(), Fields{"paymentRef": {"ref"}})
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Empty(t, v.calls)
}

func TestSubmit_ProviderOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantDetail string
	}{
		{"401 regardless of body", http.StatusUnauthorized, successBody, KindProviderAuth, ""},
		{"401 with junk", http.StatusUnauthorized, "nope", KindProviderAuth, ""},
		{"404 with message", http.StatusNotFound, `{"status":false,"message":"Transaction reference not found"}`, KindProviderAPI, "HTTP 404: Transaction reference not found"},
		{"500 with html", http.StatusInternalServerError, "<html>", KindProviderAPI, "HTTP 500: Invalid JSON from Paystack"},
		{"502 empty body", http.StatusBadGateway, "", KindProviderAPI, "HTTP 502: Invalid JSON from Paystack"},
		{"200 invalid json", http.StatusOK, "not json", KindProviderAPI, "HTTP 200: Invalid JSON from Paystack"},
		{"status false", http.StatusOK, `{"status":false,"message":"Declined"}`, KindPaymentNotVerified, "Declined"},
		{"abandoned", http.StatusOK, `{"status":true,"message":"Verification successful","data":{"status":"abandoned"}}`, KindPaymentNotVerified, "Verification successful"},
		{"no message", http.StatusOK, `{"status":true,"data":{"status":"failed"}}`, KindPaymentNotVerified, "Payment not completed successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVerifier{status: tt.status, body: tt.body}
			mem := store.NewMemoryStore()
			svc := newTestService(t, v, mem)

			_, err := svc.Submit(context.Background(), Fields{"paymentRef": {"ref"}})
			require.Error(t, err)

			e := AsError(err)
			assert.Equal(t, tt.wantKind, e.Kind)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, e.Detail)
			}
			assert.Nil(t, mem.Rows("", DefaultTableName), "nothing may be appended")
		})
	}
}

func TestSubmit_NotVerifiedCarriesProviderPayload(t *testing.T) {
	body := `{"status":true,"message":"ok","data":{"status":"failed","amount":50000}}`
	v := &fakeVerifier{status: http.StatusOK, body: body}
	svc := newTestService(t, v, store.NewMemoryStore())

	_, err := svc.Submit(context.Background(), Fields{"paymentRef": {"ref"}})
	e := AsError(err)
	require.Equal(t, KindPaymentNotVerified, e.Kind)
	got, err := json.Marshal(e.Provider)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(got))
}

func TestSubmit_TransportErrorIsUnhandled(t *testing.T) {
	v := &fakeVerifier{err: errors.New("dial tcp: connection refused")}
	svc := newTestService(t, v, store.NewMemoryStore())

	_, err := svc.Submit(context.Background(), Fields{"paymentRef": {"ref"}})
	e := AsError(err)
	assert.Equal(t, KindUnhandled, e.Kind)
	assert.True(t, strings.HasPrefix(e.Message, "Server exception: "))
	assert.Equal(t, "dial tcp: connection refused", e.Detail)
}

func TestSubmit_StoreUnavailable(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	mem := store.NewMemoryStore()
	mem.OpenErr = errors.New("permission denied")
	svc := newTestService(t, v, mem)

	_, err := svc.Submit(context.Background(), Fields{"paymentRef": {"ref"}})
	e := AsError(err)
	assert.Equal(t, KindStoreUnavailable, e.Kind)
	assert.Equal(t, "Spreadsheet access failed: permission denied", e.Message)
}

func TestSubmit_ProviderIdentityPreferred(t *testing.T) {
	body := `{"status":true,"data":{"status":"success","amount":50050,"currency":"NGN","customer":{"email":"payer@bank.ng","first_name":"Ada","last_name":"Obi"}}}`
	v := &fakeVerifier{status: http.StatusOK, body: body}
	mem := store.NewMemoryStore()
	svc := newTestService(t, v, mem)

	r, err := svc.Submit(context.Background(), Fields{
		"paymentRef":    {"ref"},
		"Full Name":     {"Ada O."},
		"Email Address": {"form@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", r.Name)
	assert.Equal(t, "payer@bank.ng", r.Email)
	assert.Equal(t, 500.5, r.Amount)

	row := mem.Rows("", DefaultTableName)[1]
	assert.Equal(t, "500.5", row[column(ColumnAmount)])
	assert.Equal(t, "form@x.com", row[column("Email Address")], "row keeps what the applicant typed")
}

func TestSubmit_NotifierFailureIgnored(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	n := &fakeNotifier{err: errors.New("smtp down")}
	svc := newTestService(t, v, store.NewMemoryStore(), WithNotifier(n))

	_, err := svc.Submit(context.Background(), Fields{"paymentRef": {"ref"}})
	assert.NoError(t, err)
	assert.Len(t, n.receipts, 1)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "500", FormatAmount(500))
	assert.Equal(t, "500.5", FormatAmount(500.5))
	assert.Equal(t, "0", FormatAmount(0))
}

// cancelAfterVerify cancels the caller's context as soon as the provider has
// confirmed the payment, the way a client disconnect would.
type cancelAfterVerify struct {
	*fakeVerifier
	cancel context.CancelFunc
}

func (c cancelAfterVerify) Verify(ctx context.Context, reference string) (*payments.Verification, error) {
	v, err := c.fakeVerifier.Verify(ctx, reference)
	c.cancel()
	return v, err
}

// ctxOpener fails on a done context like the Sheets and pgx backends do.
type ctxOpener struct{ *store.MemoryStore }

func (o ctxOpener) Open(ctx context.Context, id string) (store.Spreadsheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return o.MemoryStore.Open(ctx, id)
}

func TestSubmit_CallerCancelAfterVerifyStillRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := cancelAfterVerify{fakeVerifier: &fakeVerifier{status: http.StatusOK, body: successBody}, cancel: cancel}
	mem := store.NewMemoryStore()
	svc := newTestService(t, v, ctxOpener{mem})

	r, err := svc.Submit(ctx, Fields{"paymentRef": {"ref-paid"}})
	require.NoError(t, err)
	assert.Equal(t, "ref-paid", r.Reference)

	rows := mem.Rows("", DefaultTableName)
	require.Len(t, rows, 2)
	assert.Equal(t, "ref-paid", rows[1][column(ColumnPaymentReference)])
}

type blockingNotifier struct{ done chan struct{} }

func (n blockingNotifier) ApplicationRecorded(ctx context.Context, r *Receipt) error {
	defer close(n.done)
	<-ctx.Done()
	return ctx.Err()
}

func TestSubmit_SlowNotifierIsCutOff(t *testing.T) {
	v := &fakeVerifier{status: http.StatusOK, body: successBody}
	n := blockingNotifier{done: make(chan struct{})}
	svc := newTestService(t, v, store.NewMemoryStore(), WithNotifier(n), WithNotifyTimeout(20*time.Millisecond))

	start := time.Now()
	r, err := svc.Submit(context.Background(), Fields{"paymentRef": {"ref"}})
	require.NoError(t, err)
	assert.Equal(t, "ref", r.Reference)
	assert.Less(t, time.Since(start), 2*time.Second)

	select {
	case <-n.done:
	default:
		t.Fatal("notifier still running after Submit returned")
	}
}
