package chain

import (
	"sort"

	"github.com/mrz1836/chaincore/internal/caip"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// Factory creates adapters and parsers for supported networks.
type Factory interface {
	// NewAdapter creates the construction adapter for a chain.
	NewAdapter(id caip.ChainID) (Adapter, error)

	// NewParser creates the transaction parser for a chain.
	NewParser(id caip.ChainID) (Parser, error)
}

// Creator builds the adapter and parser of one family for a network.
// Family packages register creators so this package never imports them.
type Creator struct {
	Adapter func(n Network) (Adapter, error)
	Parser  func(n Network) (Parser, error)
}

// ConfigurableFactory is a factory that can have family creators registered.
type ConfigurableFactory struct {
	creators map[Family]Creator
}

// NewConfigurableFactory creates a new configurable factory.
func NewConfigurableFactory() *ConfigurableFactory {
	return &ConfigurableFactory{
		creators: make(map[Family]Creator),
	}
}

// Register adds the creator for a family.
func (f *ConfigurableFactory) Register(family Family, creator Creator) {
	f.creators[family] = creator
}

// NewAdapter creates an adapter using the registered family creator.
func (f *ConfigurableFactory) NewAdapter(id caip.ChainID) (Adapter, error) {
	n, creator, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	if creator.Adapter == nil {
		return nil, unsupportedFamily(n.Family)
	}
	return creator.Adapter(n)
}

// NewParser creates a parser using the registered family creator.
func (f *ConfigurableFactory) NewParser(id caip.ChainID) (Parser, error) {
	n, creator, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	if creator.Parser == nil {
		return nil, unsupportedFamily(n.Family)
	}
	return creator.Parser(n)
}

func (f *ConfigurableFactory) lookup(id caip.ChainID) (Network, Creator, error) {
	n, err := LookupNetwork(id)
	if err != nil {
		return Network{}, Creator{}, err
	}
	creator, ok := f.creators[n.Family]
	if !ok {
		return Network{}, Creator{}, unsupportedFamily(n.Family)
	}
	return n, creator, nil
}

func unsupportedFamily(family Family) error {
	return coreerr.Newf(coreerr.ErrUnsupportedChain, "no %s adapter registered", family)
}

// IsSupported returns true if the chain's family has a registered creator.
func (f *ConfigurableFactory) IsSupported(id caip.ChainID) bool {
	_, _, err := f.lookup(id)
	return err == nil
}

// SupportedChains returns every network whose family is registered.
func (f *ConfigurableFactory) SupportedChains() []caip.ChainID {
	var chains []caip.ChainID
	for _, n := range Networks() {
		if _, ok := f.creators[n.Family]; ok {
			chains = append(chains, n.ChainID)
		}
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].String() < chains[j].String() })
	return chains
}

// Compile-time interface check
var _ Factory = (*ConfigurableFactory)(nil)
