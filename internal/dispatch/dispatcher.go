// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package dispatch

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/easyflix/internal/aggregate"
	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/metrics"
	"github.com/tomtom215/easyflix/internal/models"
	"github.com/tomtom215/easyflix/internal/transport"
)

// Store is the subset of the catalog and account store the commands use.
type Store interface {
	Register(ctx context.Context, in models.NewAccount) (*models.Registration, error)
	Authenticate(ctx context.Context, username, secret string) (*models.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.AccountSummary, error)
	ChangeTier(ctx context.Context, accountID int64, tier models.Tier) (*models.TierChange, error)
	ChangeSecret(ctx context.Context, accountID int64, secret string) error
	ChangeMarketingConsent(ctx context.Context, accountID int64, consent bool) error
	ChangeFavouriteGenre(ctx context.Context, accountID int64, genre *string) error
	DeleteAccount(ctx context.Context, accountID int64) error

	AcquireTitle(ctx context.Context, accountID, titleID int64) (*models.Acquisition, error)
	ReleaseTitle(ctx context.Context, accountID, titleID int64) error
	OwnedTitles(ctx context.Context, accountID int64) ([]models.Title, error)

	AddTitle(ctx context.Context, nt models.NewTitle) (*models.Title, error)
	UpdateAccessTier(ctx context.Context, titleID int64, tier models.Tier) (*models.Title, error)
	UpdatePrice(ctx context.Context, titleID int64, price models.Money) (*models.Title, error)
	DeleteTitle(ctx context.Context, titleID int64) error
	ListTitles(ctx context.Context, filter models.TitleFilter, sort models.TitleSort, page models.PageRequest) (*models.TitlePage, error)
	Genres(ctx context.Context) ([]string, error)
	Ratings(ctx context.Context) ([]string, error)

	AuthenticateAdmin(ctx context.Context, username, secret string) (*models.Admin, error)
	LatestReport(ctx context.Context) (*models.Report, error)
	ListFinancials(ctx context.Context) ([]models.Financials, error)
	ListPurchases(ctx context.Context) ([]models.PurchaseDetail, error)
}

// Recomputer runs the aggregation engine on demand.
type Recomputer interface {
	Run(ctx context.Context, trigger, reason string) (*models.SnapshotResult, error)
}

// Dispatcher maps command names to store and aggregation operations and
// wraps every outcome in an envelope.
type Dispatcher struct {
	store      Store
	recomputer Recomputer
	trigger    aggregate.Trigger
	codec      *transport.Codec
	security   *logging.SecurityLogger
	now        func() time.Time
	commands   map[string]*command
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecomputer enables recompute_snapshot.
func WithRecomputer(r Recomputer) Option {
	return func(d *Dispatcher) { d.recomputer = r }
}

// WithTrigger sets the trigger notified after mutating commands.
func WithTrigger(t aggregate.Trigger) Option {
	return func(d *Dispatcher) { d.trigger = t }
}

// WithCodec enables the encrypted transport.
func WithCodec(c *transport.Codec) Option {
	return func(d *Dispatcher) { d.codec = c }
}

// WithSecurityLogger overrides the security audit logger.
func WithSecurityLogger(l *logging.SecurityLogger) Option {
	return func(d *Dispatcher) { d.security = l }
}

// WithClock overrides the envelope timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a Dispatcher over store.
func New(store Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		trigger:  aggregate.NopTrigger{},
		security: logging.NewSecurityLogger(),
		now:      time.Now,
		commands: commandTable(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Commands returns the number of accepted command names, aliases included.
func (d *Dispatcher) Commands() int {
	return len(d.commands)
}

// Handle dispatches a decoded request.
func (d *Dispatcher) Handle(ctx context.Context, req models.CommandRequest) models.Envelope {
	return d.Dispatch(ctx, req.Command, req.Parameters)
}

// Dispatch runs the named command. It never returns an error: failures are
// reported through the envelope as "Kind: message".
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params Params) models.Envelope {
	start := time.Now()
	cmd, err := d.lookup(name)
	if err != nil {
		metrics.RecordCommand("unknown", apperr.KindUnknownCommand.String(), time.Since(start))
		return d.failure(err)
	}
	if params == nil {
		params = Params{}
	}

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	ctx = logging.ContextWithCommand(ctx, cmd.name)

	data, message, err := d.invoke(ctx, cmd, params)
	if err != nil {
		kind := apperr.KindOf(err)
		metrics.RecordCommand(cmd.name, kind.String(), time.Since(start))
		event := logging.Ctx(ctx).Debug()
		if kind == apperr.KindInternal {
			event = logging.Ctx(ctx).Error()
		}
		event.Err(err).Str("kind", kind.String()).Msg("Command failed")
		return d.failure(err)
	}

	metrics.RecordCommand(cmd.name, "success", time.Since(start))
	if cmd.mutating {
		d.notify(ctx, cmd.name)
	}
	return models.NewEnvelope(true, message, data, d.now().UTC())
}

// lookup resolves a command name or alias, ignoring case and surrounding
// space.
func (d *Dispatcher) lookup(name string) (*command, error) {
	cmd, ok := d.commands[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, apperr.New(apperr.KindUnknownCommand, "unknown command %q", name)
	}
	return cmd, nil
}

// invoke runs the handler, converting a panic into an InternalError.
func (d *Dispatcher) invoke(ctx context.Context, cmd *command, params Params) (data interface{}, message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Command handler panicked")
			data, message = nil, ""
			err = apperr.New(apperr.KindInternal, "%s failed unexpectedly", cmd.name)
		}
	}()
	return cmd.handle(ctx, d, params)
}

// notify hands the mutation to the snapshot trigger. The command already
// succeeded, so trigger failures are only logged.
func (d *Dispatcher) notify(ctx context.Context, reason string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Interface("panic", r).Msg("Snapshot trigger panicked")
		}
	}()
	d.trigger.Notify(ctx, reason)
}

func (d *Dispatcher) failure(err error) models.Envelope {
	return models.NewEnvelope(false, errorMessage(err), nil, d.now().UTC())
}

// errorMessage renders err as "Kind: message". Wrapped causes are never
// included, so driver errors and digests stay out of responses.
func errorMessage(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return apperr.KindInternal.String() + ": internal error"
	}
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(e.Kind.String())
	}
	return e.Kind.String() + ": " + msg
}

// Reply is the outcome of an encrypted request. Encrypted is nil when the
// response could not be encrypted and the plain envelope is returned.
type Reply struct {
	Envelope  models.Envelope
	Encrypted *models.EncryptedEnvelope
}

// Body returns the value to serialize for the caller.
func (r Reply) Body() interface{} {
	if r.Encrypted != nil {
		return r.Encrypted
	}
	return r.Envelope
}

// DispatchEncrypted decrypts token into a request, dispatches it and
// encrypts the resulting envelope. remote identifies the caller in the
// security log.
func (d *Dispatcher) DispatchEncrypted(ctx context.Context, token, remote string) Reply {
	if d.codec == nil {
		return Reply{Envelope: d.failure(apperr.New(apperr.KindTransport, "encrypted transport is not configured"))}
	}

	req, err := d.decodeRequest(token)
	if err != nil {
		metrics.TransportFailures.WithLabelValues("decode").Inc()
		d.security.LogTransportRejected(remote, err.Error())
		return d.seal(ctx, d.failure(err))
	}
	return d.seal(ctx, d.Handle(ctx, req))
}

func (d *Dispatcher) decodeRequest(token string) (models.CommandRequest, error) {
	var req models.CommandRequest
	plaintext, err := d.codec.Decrypt(token)
	if err != nil {
		return req, err
	}
	dec := json.NewDecoder(strings.NewReader(plaintext))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return req, apperr.Wrap(apperr.KindTransport, err, "request is not a valid command")
	}
	if strings.TrimSpace(req.Command) == "" {
		return req, apperr.New(apperr.KindTransport, "request is missing a command")
	}
	return req, nil
}

// seal encrypts env, falling back to the plain envelope on failure.
func (d *Dispatcher) seal(ctx context.Context, env models.Envelope) Reply {
	body, err := json.Marshal(env)
	if err == nil {
		var token string
		if token, err = d.codec.Encrypt(string(body)); err == nil {
			return Reply{Envelope: env, Encrypted: &models.EncryptedEnvelope{Encrypted: true, Data: token}}
		}
	}
	metrics.TransportFailures.WithLabelValues("encode").Inc()
	logging.Ctx(ctx).Warn().Err(err).Msg("Failed to encrypt response, returning plain envelope")
	return Reply{Envelope: env}
}
