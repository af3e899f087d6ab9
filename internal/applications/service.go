// Package applications turns a paid job application into a spreadsheet row.
//
// A submission is only recorded after the payment provider confirms the
// reference. Recording is append-only: resubmitting a reference appends again.
package applications

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"intake/internal/metrics"
	"intake/internal/payments"
	"intake/internal/store"

	"go.uber.org/zap"
)

const (
	DefaultTableName = "Application_form"
	ThankYouPath     = "/thank-you"

	// DefaultNotifyTimeout bounds the confirmation notifier so a slow mail
	// server cannot hold the response past the server's write timeout.
	DefaultNotifyTimeout = 5 * time.Second
)

// Config is fixed per deployment.
type Config struct {
	// SecretKey is only checked for being a placeholder; the verifier carries
	// the credential it actually uses.
	SecretKey           string
	StoreID             string
	TableName           string
	ConfirmationBaseURL string
}

// Notifier is told about every recorded application. Failures are logged and
// otherwise ignored.
type Notifier interface {
	ApplicationRecorded(ctx context.Context, r *Receipt) error
}

// Receipt summarizes a recorded application.
type Receipt struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	RedirectURL string  `json:"-"`
}

type Service struct {
	cfg      Config
	verifier payments.Verifier
	store    store.Opener
	notifier Notifier
	logger   *zap.SugaredLogger
	now      func() time.Time

	notifyTimeout time.Duration
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifyTimeout = d }
}

func NewService(cfg Config, verifier payments.Verifier, opener store.Opener, logger *zap.SugaredLogger, opts ...Option) *Service {
	if cfg.TableName == "" {
		cfg.TableName = DefaultTableName
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{
		cfg:      cfg,
		verifier: verifier,
		store:    opener,
		logger:   logger,
		now:      time.Now,

		notifyTimeout: DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reference returns the trimmed payment reference, preferring paymentRef.
func Reference(f Fields) string {
	if ref := strings.TrimSpace(f.Get("paymentRef")); ref != "" {
		return ref
	}
	return strings.TrimSpace(f.Get("reference"))
}

// Submit verifies the payment behind fields and appends the application.
// Every failure is an *Error.
//
// Cancelling ctx does not stop a submission once it has started: a verified
// payment is always recorded. The provider and store calls carry their own
// timeouts.
func (s *Service) Submit(ctx context.Context, fields Fields) (*Receipt, error) {
	ctx = context.WithoutCancel(ctx)

	ref := Reference(fields)
	if ref == "" {
		return nil, errMissingReference()
	}

	if payments.IsPlaceholderSecret(s.cfg.SecretKey) {
		return nil, errNotConfigured()
	}

	tx, err := s.verify(ctx, ref)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		Reference: ref,
		Amount:    tx.MajorAmount(),
		Currency:  tx.Currency,
		Email:     firstNonEmpty(tx.CustomerEmail(), fields.Get(FieldEmail)),
		Name:      firstNonEmpty(tx.CustomerName(), fields.Get(FieldFullName)),
	}

	if err := s.record(ctx, fields, receipt); err != nil {
		return nil, err
	}

	redirect, err := s.redirectURL(receipt)
	if err != nil {
		// The row is already appended and stays appended.
		return nil, AsError(err)
	}
	receipt.RedirectURL = redirect

	s.notify(ctx, receipt)

	return receipt, nil
}

func (s *Service) notify(ctx context.Context, receipt *Receipt) {
	if s.notifier == nil {
		return
	}
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
	}
	if err := s.notifier.ApplicationRecorded(ctx, receipt); err != nil {
		s.logger.Warnw("confirmation notification failed", "reference", receipt.Reference, "error", err)
	}
}

func (s *Service) verify(ctx context.Context, ref string) (*payments.TransactionData, error) {
	v, err := s.verifier.Verify(ctx, ref)
	if err != nil {
		return nil, AsError(err)
	}

	s.logger.Debugw("provider verification response", "reference", ref, "status", v.StatusCode, "body", string(v.Body))

	switch {
	case v.StatusCode == http.StatusUnauthorized:
		return nil, errProviderAuth()
	case v.Payload == nil:
		e := errProviderAPI(v.StatusCode, invalidProviderJSON, v.Diagnostic())
		e.Err = v.ParseErr
		return nil, e
	case v.StatusCode != http.StatusOK:
		return nil, errProviderAPI(v.StatusCode, v.Payload.Message, v.Diagnostic())
	case !v.Payload.Verified():
		return nil, errNotVerified(v.Payload.Message, v.Diagnostic())
	}

	return v.Payload.Data, nil
}

func (s *Service) record(ctx context.Context, fields Fields, receipt *Receipt) error {
	book, err := s.store.Open(ctx, s.cfg.StoreID)
	if err != nil {
		return errStoreUnavailable(err)
	}

	sheet, err := book.Sheet(ctx, s.cfg.TableName)
	if err != nil {
		return errStoreUnavailable(err)
	}

	n, err := sheet.RowCount(ctx)
	if err != nil {
		return errStoreUnavailable(err)
	}
	if n == 0 {
		if err := sheet.AppendRow(ctx, Headers()); err != nil {
			return errStoreUnavailable(err)
		}
		metrics.RowsAppended.Inc()
	}

	if err := sheet.AppendRow(ctx, s.buildRow(fields, receipt)); err != nil {
		return errStoreUnavailable(err)
	}
	metrics.RowsAppended.Inc()
	return nil
}

func (s *Service) buildRow(fields Fields, receipt *Receipt) []string {
	headers := Headers()
	row := make([]string, len(headers))
	for i, h := range headers {
		switch h {
		case ColumnTimestamp:
			row[i] = s.now().UTC().Format(time.RFC3339)
		case ColumnAmount:
			row[i] = FormatAmount(receipt.Amount)
		case ColumnCurrency:
			row[i] = receipt.Currency
		case ColumnPaymentReference:
			row[i] = receipt.Reference
		case ColumnVerificationStatus:
			row[i] = VerificationSuccess
		default:
			row[i] = fields.Lookup(h)
		}
	}
	return row
}

func (s *Service) redirectURL(r *Receipt) (string, error) {
	base, err := url.Parse(strings.TrimRight(s.cfg.ConfirmationBaseURL, "/") + ThankYouPath)
	if err != nil {
		return "", err
	}
	// Parameter order is name, email, ref; url.Values would sort them.
	base.RawQuery = "name=" + url.QueryEscape(r.Name) +
		"&email=" + url.QueryEscape(r.Email) +
		"&ref=" + url.QueryEscape(r.Reference)
	return base.String(), nil
}

// FormatAmount renders an amount without trailing zeros: 500, 500.5.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
