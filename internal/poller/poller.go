// Package poller keeps the last known native and token balances of one
// account fresh by re-reading them on a fixed interval.
package poller

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/ligun0805/crossapp-wallet/internal/metrics"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

const DefaultInterval = 10 * time.Second

// Reader is the part of the chain client the poller needs.
type Reader interface {
	Balance(ctx context.Context, account string) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account string) (*big.Int, error)
}

type State int32

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// UpdateFunc receives every successful read.
type UpdateFunc func(wallet.BalanceSnapshot)

type Poller struct {
	rpc      Reader
	token    string
	interval time.Duration
	clock    clock.Clock
	log      zerolog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cur    *run
	latest *wallet.BalanceSnapshot
}

// run is one Start..Stop cycle for a single account.
type run struct {
	gen      uint64
	account  wallet.Account
	onUpdate UpdateFunc
	ctx      context.Context
	cancel   context.CancelFunc
	ticker   *clock.Ticker
	busy     atomic.Bool
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithToken adds an ERC-20 balance to every read.
func WithToken(token string) Option {
	return func(p *Poller) { p.token = token }
}

func WithClock(c clock.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) { p.log = l }
}

func New(rpc Reader, opts ...Option) *Poller {
	p := &Poller{
		rpc:      rpc,
		interval: DefaultInterval,
		clock:    clock.New(),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start polls account until Stop, ctx cancellation or the next Start. The
// first read happens before Start returns; later reads run on every tick.
// An empty account is the same as Stop.
//
// A tick that fires while the previous read is still pending is skipped.
// Failed reads are logged and never reach onUpdate.
func (p *Poller) Start(ctx context.Context, account wallet.Account, onUpdate UpdateFunc) {
	if account == "" {
		p.Stop()
		return
	}

	p.mu.Lock()
	p.stopLocked()
	p.gen++
	rctx, cancel := context.WithCancel(ctx)
	r := &run{gen: p.gen, account: account, onUpdate: onUpdate, ctx: rctx, cancel: cancel}
	p.cur = r
	p.state = Running
	p.mu.Unlock()

	p.log.Info().Str("account", account.String()).Dur("interval", p.interval).Msg("polling started")
	p.poll(r)

	p.mu.Lock()
	if p.gen != r.gen {
		p.mu.Unlock()
		return
	}
	if rctx.Err() != nil {
		p.mu.Unlock()
		p.endRun(r)
		return
	}
	r.ticker = p.clock.Ticker(p.interval)
	p.mu.Unlock()
	go p.loop(r)
}

// Stop cancels polling. Reads already in flight are not delivered. Safe to
// call more than once or before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Stopped {
		return
	}
	p.stopLocked()
	p.gen++
	p.state = Stopped
	p.log.Info().Msg("polling stopped")
}

// endRun stops r after its context ended, unless a later Start or Stop
// already replaced it.
func (p *Poller) endRun(r *run) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != r.gen {
		return
	}
	p.stopLocked()
	p.gen++
	p.state = Stopped
	p.log.Info().Str("account", r.account.String()).Msg("polling stopped, context done")
}

func (p *Poller) stopLocked() {
	if p.cur == nil {
		return
	}
	if p.cur.ticker != nil {
		p.cur.ticker.Stop()
	}
	p.cur.cancel()
	p.cur = nil
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Latest returns the last delivered snapshot. It is the last known value, not
// a live one.
func (p *Poller) Latest() (wallet.BalanceSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return wallet.BalanceSnapshot{}, false
	}
	return *p.latest, true
}

func (p *Poller) loop(r *run) {
	for {
		select {
		case <-r.ctx.Done():
			p.endRun(r)
			return
		case <-r.ticker.C:
			if r.ctx.Err() != nil {
				p.endRun(r)
				return
			}
			if !r.busy.CompareAndSwap(false, true) {
				metrics.RecordPoll("skipped", 0)
				p.log.Debug().Str("account", r.account.String()).Msg("previous read pending, tick skipped")
				continue
			}
			go func() {
				defer r.busy.Store(false)
				p.poll(r)
			}()
		}
	}
}

func (p *Poller) poll(r *run) {
	metrics.PollStarted()
	defer metrics.PollFinished()

	start := p.clock.Now()
	snap, err := p.read(r.ctx, r.account)
	took := p.clock.Since(start)
	if err != nil {
		metrics.RecordPoll("error", took.Seconds())
		p.log.Warn().Err(err).Str("account", r.account.String()).Msg("balance read failed, keeping last snapshot")
		return
	}

	p.mu.Lock()
	if p.gen != r.gen || r.ctx.Err() != nil {
		p.mu.Unlock()
		metrics.RecordPoll("stale", took.Seconds())
		return
	}
	p.latest = &snap
	p.mu.Unlock()

	metrics.RecordPoll("ok", took.Seconds())
	p.log.Debug().
		Str("account", r.account.String()).
		Str("native", snap.Native().String()).
		Str("token", snap.Token().String()).
		Dur("took", took).
		Msg("balances updated")
	if r.onUpdate != nil {
		r.onUpdate(snap)
	}
}

func (p *Poller) read(ctx context.Context, account wallet.Account) (wallet.BalanceSnapshot, error) {
	native, err := p.rpc.Balance(ctx, account.String())
	if err != nil {
		return wallet.BalanceSnapshot{}, fmt.Errorf("%w: native balance: %w", wallet.ErrNetworkUnavailable, err)
	}
	token := new(big.Int)
	if p.token != "" {
		if token, err = p.rpc.TokenBalance(ctx, p.token, account.String()); err != nil {
			return wallet.BalanceSnapshot{}, fmt.Errorf("%w: token balance: %w", wallet.ErrNetworkUnavailable, err)
		}
	}
	return wallet.NewSnapshot(account, native, token, p.clock.Now()), nil
}
