package chain

import (
	"sort"

	"github.com/mrz1836/chaincore/internal/bip44"
	"github.com/mrz1836/chaincore/internal/caip"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// Cosmos-SDK defaults used when a request leaves gas or fee unset.
const (
	DefaultCosmosGas uint64 = 200000
	DefaultCosmosFee uint64 = 5000
)

// Network describes the static properties of one supported chain.
type Network struct {
	ChainID     caip.ChainID
	Family      Family
	Symbol      string
	Decimals    int32
	NativeAsset caip.AssetID
	Purpose     uint32
	CoinType    uint32

	// UTXO only.
	DustLimit uint64
	SegWit    bool

	// Cosmos-SDK only.
	Bech32Prefix string
	Denom        string
	DefaultGas   uint64
	DefaultFee   uint64
}

// Path returns the default derivation params for an account and address index.
func (n Network) Path(account uint32, isChange bool, index uint32) bip44.Params {
	return bip44.Params{
		Purpose:       n.Purpose,
		CoinType:      n.CoinType,
		AccountNumber: account,
		IsChange:      isChange,
		Index:         index,
	}
}

//nolint:gochecknoglobals // closed network table
var networks = map[caip.ChainID]Network{
	caip.BitcoinMainnet: {
		ChainID: caip.BitcoinMainnet, Family: FamilyUTXO, Symbol: "BTC", Decimals: 8,
		NativeAsset: caip.BTC, Purpose: bip44.PurposeNativeSegwit, CoinType: 0,
		DustLimit: 546, SegWit: true,
	},
	caip.BitcoinTestnet: {
		ChainID: caip.BitcoinTestnet, Family: FamilyUTXO, Symbol: "tBTC", Decimals: 8,
		NativeAsset: caip.AssetID{ChainID: caip.BitcoinTestnet, AssetNamespace: caip.AssetNamespaceSLIP44, AssetReference: "1"},
		Purpose:     bip44.PurposeNativeSegwit, CoinType: 1,
		DustLimit: 546, SegWit: true,
	},
	caip.BitcoinCash: {
		ChainID: caip.BitcoinCash, Family: FamilyUTXO, Symbol: "BCH", Decimals: 8,
		NativeAsset: caip.BCH, Purpose: bip44.PurposeLegacy, CoinType: 145,
		DustLimit: 546,
	},
	caip.LitecoinMainnet: {
		ChainID: caip.LitecoinMainnet, Family: FamilyUTXO, Symbol: "LTC", Decimals: 8,
		NativeAsset: caip.LTC, Purpose: bip44.PurposeNativeSegwit, CoinType: 2,
		DustLimit: 1000, SegWit: true,
	},
	caip.DogecoinMainnet: {
		ChainID: caip.DogecoinMainnet, Family: FamilyUTXO, Symbol: "DOGE", Decimals: 8,
		NativeAsset: caip.DOGE, Purpose: bip44.PurposeLegacy, CoinType: 3,
		DustLimit: 1000000,
	},
	caip.EthereumMainnet: evm(caip.EthereumMainnet, "ETH", caip.ETH),
	caip.OptimismMainnet: evm(caip.OptimismMainnet, "ETH", slip44(caip.OptimismMainnet, "60")),
	caip.BNBSmartChain:   evm(caip.BNBSmartChain, "BNB", caip.BNB),
	caip.GnosisMainnet:   evm(caip.GnosisMainnet, "xDAI", slip44(caip.GnosisMainnet, "700")),
	caip.PolygonMainnet:  evm(caip.PolygonMainnet, "POL", caip.MATIC),
	caip.BaseMainnet:     evm(caip.BaseMainnet, "ETH", slip44(caip.BaseMainnet, "60")),
	caip.ArbitrumMainnet: evm(caip.ArbitrumMainnet, "ETH", slip44(caip.ArbitrumMainnet, "60")),
	caip.AvalancheCChain: evm(caip.AvalancheCChain, "AVAX", caip.AVAX),
	caip.CosmosHub: {
		ChainID: caip.CosmosHub, Family: FamilyCosmosSDK, Symbol: "ATOM", Decimals: 6,
		NativeAsset: caip.ATOM, Purpose: bip44.PurposeLegacy, CoinType: 118,
		Bech32Prefix: "cosmos", Denom: "uatom", DefaultGas: DefaultCosmosGas, DefaultFee: DefaultCosmosFee,
	},
	caip.OsmosisMainnet: {
		ChainID: caip.OsmosisMainnet, Family: FamilyCosmosSDK, Symbol: "OSMO", Decimals: 6,
		NativeAsset: caip.OSMO, Purpose: bip44.PurposeLegacy, CoinType: 118,
		Bech32Prefix: "osmo", Denom: "uosmo", DefaultGas: DefaultCosmosGas, DefaultFee: DefaultCosmosFee,
	},
	caip.THORChainMainnet: {
		ChainID: caip.THORChainMainnet, Family: FamilyCosmosSDK, Symbol: "RUNE", Decimals: 8,
		NativeAsset: caip.RUNE, Purpose: bip44.PurposeLegacy, CoinType: 931,
		Bech32Prefix: "thor", Denom: "rune", DefaultGas: 500000000, DefaultFee: 2000000,
	},
	caip.MayaMainnet: {
		ChainID: caip.MayaMainnet, Family: FamilyCosmosSDK, Symbol: "CACAO", Decimals: 10,
		NativeAsset: caip.CACAO, Purpose: bip44.PurposeLegacy, CoinType: 931,
		Bech32Prefix: "maya", Denom: "cacao", DefaultGas: 500000000, DefaultFee: 5000000000,
	},
}

// evm describes an eip155 chain. The EIP-155 chain id is the numeric
// CAIP-2 reference.
func evm(id caip.ChainID, symbol string, native caip.AssetID) Network {
	return Network{
		ChainID: id, Family: FamilyAccount, Symbol: symbol, Decimals: 18,
		NativeAsset: native, Purpose: bip44.PurposeLegacy, CoinType: 60,
	}
}

func slip44(id caip.ChainID, coinType string) caip.AssetID {
	return caip.AssetID{ChainID: id, AssetNamespace: caip.AssetNamespaceSLIP44, AssetReference: coinType}
}

// LookupNetwork returns the static description of a supported chain.
func LookupNetwork(id caip.ChainID) (Network, error) {
	n, ok := networks[id]
	if !ok {
		return Network{}, coreerr.WithDetails(
			coreerr.Newf(coreerr.ErrUnsupportedChain, "no network registered for %s", id),
			map[string]string{"chain_id": id.String()},
		)
	}
	return n, nil
}

// Networks returns every supported network sorted by chain id.
func Networks() []Network {
	out := make([]Network, 0, len(networks))
	for _, n := range networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID.String() < out[j].ChainID.String() })
	return out
}

// NetworksByFamily returns the supported networks of one family.
func NetworksByFamily(f Family) []Network {
	var out []Network
	for _, n := range Networks() {
		if n.Family == f {
			out = append(out, n)
		}
	}
	return out
}
