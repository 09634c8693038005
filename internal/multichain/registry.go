// Package multichain wires the family adapters and parsers behind one
// registry configured from the application config.
package multichain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/chaincore/internal/bip44"
	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	"github.com/mrz1836/chaincore/internal/chain/cosmos"
	"github.com/mrz1836/chaincore/internal/chain/evm"
	"github.com/mrz1836/chaincore/internal/chain/utxo"
	"github.com/mrz1836/chaincore/internal/config"
	"github.com/mrz1836/chaincore/internal/metrics"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// Registry creates and caches the adapter and parser of every supported
// network. It is safe for concurrent use.
type Registry struct {
	factory *chain.ConfigurableFactory
	cfg     *config.Config
	logger  chain.LogWriter
	metrics *metrics.Metrics
	now     func() time.Time
	workers int

	mu       sync.Mutex
	adapters map[caip.ChainID]chain.Adapter
	parsers  map[caip.ChainID]chain.Parser
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger handed to every adapter and parser.
func WithLogger(l chain.LogWriter) Option {
	return func(r *Registry) { r.logger = chain.LoggerOrNop(l) }
}

// WithMetrics records builds and parses on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithClock sets the clock Cosmos parsers use to decide whether an
// unbonding has completed.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a registry for cfg; a nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) *Registry {
	if cfg == nil {
		cfg = config.Defaults()
	}
	r := &Registry{
		factory:  chain.NewConfigurableFactory(),
		cfg:      cfg,
		logger:   chain.LoggerOrNop(nil),
		now:      time.Now,
		workers:  cfg.Batch.Workers,
		adapters: make(map[caip.ChainID]chain.Adapter),
		parsers:  make(map[caip.ChainID]chain.Parser),
	}
	if r.workers <= 0 {
		r.workers = config.DefaultWorkers
	}
	for _, opt := range opts {
		opt(r)
	}

	r.factory.Register(chain.FamilyUTXO, chain.Creator{Adapter: r.newUTXOAdapter, Parser: r.newUTXOParser})
	r.factory.Register(chain.FamilyAccount, chain.Creator{Adapter: r.newEVMAdapter, Parser: r.newEVMParser})
	r.factory.Register(chain.FamilyCosmosSDK, chain.Creator{Adapter: r.newCosmosAdapter, Parser: r.newCosmosParser})
	return r
}

func (r *Registry) newUTXOAdapter(n chain.Network) (chain.Adapter, error) {
	a, err := utxo.NewAdapter(n,
		utxo.WithLogger(r.logger),
		utxo.WithDefaultFeeRate(r.cfg.UTXO.DefaultFeeRate),
		utxo.WithDustLimit(r.cfg.UTXO.DustLimits[n.ChainID.String()]),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Registry) newUTXOParser(n chain.Network) (chain.Parser, error) {
	p, err := utxo.NewParser(n, r.logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Registry) newEVMAdapter(n chain.Network) (chain.Adapter, error) {
	a, err := evm.NewAdapter(n,
		evm.WithLogger(r.logger),
		evm.WithGasMultiplier(r.cfg.EVM.GasMultiplier),
		evm.WithChainID(r.cfg.EVM.ChainIDs[n.ChainID.String()]),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Registry) newEVMParser(n chain.Network) (chain.Parser, error) {
	p, err := evm.NewParser(n, r.logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Registry) newCosmosAdapter(n chain.Network) (chain.Adapter, error) {
	key := n.ChainID.String()
	a, err := cosmos.NewAdapter(n,
		cosmos.WithLogger(r.logger),
		cosmos.WithDefaultGas(r.cfg.Cosmos.Gas[key]),
		cosmos.WithDefaultFee(r.cfg.Cosmos.Fee[key]),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Registry) newCosmosParser(n chain.Network) (chain.Parser, error) {
	label := n.ChainID.String()
	p, err := cosmos.NewParser(n, r.logger,
		cosmos.WithClock(r.now),
		cosmos.WithUnrecognizedHook(func(string) {
			r.metrics.RecordUnrecognized(label, metrics.KindEvent)
		}),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Adapter returns the construction adapter of a network.
func (r *Registry) Adapter(id caip.ChainID) (chain.Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.adapters[id]; ok {
		return a, nil
	}
	a, err := r.factory.NewAdapter(id)
	if err != nil {
		return nil, err
	}
	r.adapters[id] = a
	return a, nil
}

// Parser returns the transaction parser of a network.
func (r *Registry) Parser(id caip.ChainID) (chain.Parser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.parsers[id]; ok {
		return p, nil
	}
	p, err := r.factory.NewParser(id)
	if err != nil {
		return nil, err
	}
	r.parsers[id] = p
	return p, nil
}

// IsSupported returns true if the network has an adapter and parser.
func (r *Registry) IsSupported(id caip.ChainID) bool {
	return r.factory.IsSupported(id)
}

// SupportedChains lists every supported network in identifier order.
func (r *Registry) SupportedChains() []caip.ChainID {
	return r.factory.SupportedChains()
}

// ValidateAddress checks an address against a network's encoding rules.
func (r *Registry) ValidateAddress(id caip.ChainID, address string) error {
	a, err := r.Adapter(id)
	if err != nil {
		return err
	}
	return a.ValidateAddress(address)
}

// validatorChecker is implemented by adapters of chains with staking
// operator addresses.
type validatorChecker interface {
	ValidateValidatorAddress(address string) error
}

// ValidateValidatorAddress checks a staking validator operator address.
func (r *Registry) ValidateValidatorAddress(id caip.ChainID, address string) error {
	a, err := r.Adapter(id)
	if err != nil {
		return err
	}
	v, ok := a.(validatorChecker)
	if !ok {
		return coreerr.Newf(coreerr.ErrUnsupportedChain, "%s has no validator addresses", id)
	}
	return v.ValidateValidatorAddress(address)
}

// DeriveAddress derives the address at p below an account extended public key.
func (r *Registry) DeriveAddress(id caip.ChainID, accountXPub string, p bip44.Params) (string, error) {
	a, err := r.Adapter(id)
	if err != nil {
		return "", err
	}
	return chain.DeriveAddress(a, accountXPub, p)
}

// EstimateFee estimates the fee of a build request.
func (r *Registry) EstimateFee(id caip.ChainID, req *chain.BuildRequest) (*chain.FeeEstimate, error) {
	a, err := r.Adapter(id)
	if err != nil {
		return nil, err
	}
	return a.EstimateFee(r.withDefaults(req))
}

// Build turns a request into an unsigned transaction. An account request
// without a gas speed uses the configured one.
func (r *Registry) Build(id caip.ChainID, req *chain.BuildRequest) (chain.UnsignedTransaction, error) {
	a, err := r.Adapter(id)
	if err != nil {
		r.metrics.RecordBuild(id.String(), "", err)
		return nil, err
	}

	tx, err := a.BuildUnsignedTransaction(r.withDefaults(req))
	r.metrics.RecordBuild(id.String(), a.Family().String(), err)
	if err != nil {
		r.logger.Debug("build on %s failed: %v", id, err)
		return nil, err
	}
	return tx, nil
}

// withDefaults returns req with the configured gas speed filled in. The
// caller's request is never modified.
func (r *Registry) withDefaults(req *chain.BuildRequest) *chain.BuildRequest {
	if req == nil || req.Account == nil || req.Account.Speed != "" || r.cfg.EVM.GasSpeed == "" {
		return req
	}
	params := *req.Account
	params.Speed = chain.GasSpeed(r.cfg.EVM.GasSpeed)
	out := *req
	out.Account = &params
	return &out
}

// Parse normalizes one raw indexer record.
func (r *Registry) Parse(id caip.ChainID, data []byte, watched string) (*chain.NormalizedTransaction, error) {
	p, err := r.Parser(id)
	if err != nil {
		return nil, err
	}
	tx, err := p.ParseRaw(data, watched)
	if err != nil {
		return nil, err
	}
	r.recordParse(tx)
	return tx, nil
}

// ParseBatch normalizes raw records on a bounded worker pool. Results keep
// the input order. The first malformed record or a cancelled context stops
// the batch.
func (r *Registry) ParseBatch(ctx context.Context, id caip.ChainID, raws [][]byte, watched string) ([]*chain.NormalizedTransaction, error) {
	p, err := r.Parser(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { r.metrics.ObserveBatch(time.Since(start)) }()

	results := make([]*chain.NormalizedTransaction, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, data := range raws {
		if gctx.Err() != nil {
			break
		}
		i, data := i, data
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tx, err := p.ParseRaw(data, watched)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			r.recordParse(tx)
			results[i] = tx
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("parsed %d %s records with %d workers in %s", len(raws), id, r.workers, time.Since(start))
	return results, nil
}

func (r *Registry) recordParse(tx *chain.NormalizedTransaction) {
	label := tx.ChainID.String()
	r.metrics.RecordParse(label, string(tx.Status))
	if tx.Call != nil && tx.Call.Method == chain.CallMethodUnrecognized {
		r.metrics.RecordUnrecognized(label, metrics.KindCall)
	}
}
