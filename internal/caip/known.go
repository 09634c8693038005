package caip

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
	ltcchaincfg "github.com/ltcsuite/ltcd/chaincfg"
)

// Chain namespaces.
const (
	NamespaceEIP155 = "eip155"
	NamespaceBIP122 = "bip122"
	NamespaceCosmos = "cosmos"
)

// Asset namespaces.
const (
	AssetNamespaceSLIP44  = "slip44"
	AssetNamespaceERC20   = "erc20"
	AssetNamespaceBEP20   = "bep20"
	AssetNamespaceERC721  = "erc721"
	AssetNamespaceERC1155 = "erc1155"
	AssetNamespaceIBC     = "ibc"
	AssetNamespaceNative  = "native"
	AssetNamespaceCW20    = "cw20"
)

// bip122 references are the first 32 hex characters of a genesis block hash.
// Bitcoin Cash uses the hash of its fork block.
const (
	bitcoinCashReference = "000000000000000000651ef99cb9fcbe"
	dogecoinReference    = "00000000001a91e3dace36e2be3bf030"
	bip122ReferenceLen   = 32
)

//nolint:gochecknoglobals // derived once from the network parameters
var (
	bitcoinReference        = chaincfg.MainNetParams.GenesisHash.String()[:bip122ReferenceLen]
	bitcoinTestnetReference = chaincfg.TestNet3Params.GenesisHash.String()[:bip122ReferenceLen]
	litecoinReference       = ltcchaincfg.MainNetParams.GenesisHash.String()[:bip122ReferenceLen]
)

// knownChains maps namespace -> reference -> network name.
//
//nolint:gochecknoglobals // closed lookup table
var knownChains = map[string]map[string]string{
	NamespaceEIP155: {
		"1":     "Ethereum",
		"10":    "Optimism",
		"56":    "BNB Smart Chain",
		"100":   "Gnosis",
		"137":   "Polygon",
		"8453":  "Base",
		"42161": "Arbitrum One",
		"43114": "Avalanche C-Chain",
	},
	NamespaceBIP122: {
		bitcoinReference:        "Bitcoin",
		bitcoinTestnetReference: "Bitcoin Testnet",
		bitcoinCashReference:    "Bitcoin Cash",
		litecoinReference:       "Litecoin",
		dogecoinReference:       "Dogecoin",
	},
	NamespaceCosmos: {
		"cosmoshub-4":          "Cosmos Hub",
		"osmosis-1":            "Osmosis",
		"thorchain-1":          "THORChain",
		"mayachain-mainnet-v1": "Maya Protocol",
	},
}

// assetNamespaces maps asset namespace -> chain namespaces that allow it.
//
//nolint:gochecknoglobals // closed lookup table
var assetNamespaces = map[string]map[string]bool{
	AssetNamespaceSLIP44:  {NamespaceEIP155: true, NamespaceBIP122: true, NamespaceCosmos: true},
	AssetNamespaceERC20:   {NamespaceEIP155: true},
	AssetNamespaceBEP20:   {NamespaceEIP155: true},
	AssetNamespaceERC721:  {NamespaceEIP155: true},
	AssetNamespaceERC1155: {NamespaceEIP155: true},
	AssetNamespaceIBC:     {NamespaceCosmos: true},
	AssetNamespaceNative:  {NamespaceCosmos: true},
	AssetNamespaceCW20:    {NamespaceCosmos: true},
}

// Well-known chains.
//
//nolint:gochecknoglobals // immutable values
var (
	EthereumMainnet  = ChainID{Namespace: NamespaceEIP155, Reference: "1"}
	OptimismMainnet  = ChainID{Namespace: NamespaceEIP155, Reference: "10"}
	BNBSmartChain    = ChainID{Namespace: NamespaceEIP155, Reference: "56"}
	GnosisMainnet    = ChainID{Namespace: NamespaceEIP155, Reference: "100"}
	PolygonMainnet   = ChainID{Namespace: NamespaceEIP155, Reference: "137"}
	BaseMainnet      = ChainID{Namespace: NamespaceEIP155, Reference: "8453"}
	ArbitrumMainnet  = ChainID{Namespace: NamespaceEIP155, Reference: "42161"}
	AvalancheCChain  = ChainID{Namespace: NamespaceEIP155, Reference: "43114"}
	BitcoinMainnet   = ChainID{Namespace: NamespaceBIP122, Reference: bitcoinReference}
	BitcoinTestnet   = ChainID{Namespace: NamespaceBIP122, Reference: bitcoinTestnetReference}
	BitcoinCash      = ChainID{Namespace: NamespaceBIP122, Reference: bitcoinCashReference}
	LitecoinMainnet  = ChainID{Namespace: NamespaceBIP122, Reference: litecoinReference}
	DogecoinMainnet  = ChainID{Namespace: NamespaceBIP122, Reference: dogecoinReference}
	CosmosHub        = ChainID{Namespace: NamespaceCosmos, Reference: "cosmoshub-4"}
	OsmosisMainnet   = ChainID{Namespace: NamespaceCosmos, Reference: "osmosis-1"}
	THORChainMainnet = ChainID{Namespace: NamespaceCosmos, Reference: "thorchain-1"}
	MayaMainnet      = ChainID{Namespace: NamespaceCosmos, Reference: "mayachain-mainnet-v1"}
)

// Native fee assets of the well-known chains.
//
//nolint:gochecknoglobals // immutable values
var (
	ETH   = slip44(EthereumMainnet, "60")
	BNB   = slip44(BNBSmartChain, "714")
	MATIC = slip44(PolygonMainnet, "966")
	AVAX  = slip44(AvalancheCChain, "9000")
	BTC   = slip44(BitcoinMainnet, "0")
	BCH   = slip44(BitcoinCash, "145")
	LTC   = slip44(LitecoinMainnet, "2")
	DOGE  = slip44(DogecoinMainnet, "3")
	ATOM  = slip44(CosmosHub, "118")
	OSMO  = slip44(OsmosisMainnet, "118")
	RUNE  = slip44(THORChainMainnet, "931")
	CACAO = slip44(MayaMainnet, "931")
)

func slip44(chainID ChainID, coinType string) AssetID {
	return AssetID{ChainID: chainID, AssetNamespace: AssetNamespaceSLIP44, AssetReference: coinType}
}

// Namespaces returns the supported chain namespaces in sorted order.
func Namespaces() []string {
	out := make([]string, 0, len(knownChains))
	for ns := range knownChains {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// KnownChains returns every supported chain sorted by its string form.
func KnownChains() []ChainID {
	out := make([]ChainID, 0, 16)
	for ns, refs := range knownChains {
		for ref := range refs {
			out = append(out, ChainID{Namespace: ns, Reference: ref})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// IsKnown reports whether the chain is in the lookup table.
func IsKnown(c ChainID) bool {
	refs, ok := knownChains[c.Namespace]
	if !ok {
		return false
	}
	_, ok = refs[c.Reference]
	return ok
}
