package address

// Network identifies which Zcash chain an address was encoded for. Every
// parsed Address carries its network; mixing networks is a parse error, never
// a silent success.
type Network uint8

const (
	Mainnet Network = iota
	Testnet
	Regtest
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	default:
		return "unknown"
	}
}

// ParseNetwork maps a chain name, as getblockchaininfo reports it, to a
// Network. zcashd calls mainnet "main" and testnet "test".
func ParseNetwork(name string) (Network, bool) {
	switch name {
	case "mainnet", "main":
		return Mainnet, true
	case "testnet", "test":
		return Testnet, true
	case "regtest":
		return Regtest, true
	default:
		return 0, false
	}
}

// Transparent address version prefixes (2 bytes, base58check).
var (
	mainnetP2PKHPrefix = [2]byte{0x1C, 0xB8} // t1...
	mainnetP2SHPrefix  = [2]byte{0x1C, 0xBD} // t3...
	testnetP2PKHPrefix = [2]byte{0x1D, 0x25} // tm...
	testnetP2SHPrefix  = [2]byte{0x1C, 0xBA} // t2...
)

// Sapling payment address HRPs (bech32).
const (
	saplingHRPMainnet = "zs"
	saplingHRPTestnet = "ztestsapling"
	saplingHRPRegtest = "zregtestsapling"
)

// Unified address HRPs (bech32m, ZIP-316).
const (
	unifiedHRPMainnet = "u"
	unifiedHRPTestnet = "utest"
	unifiedHRPRegtest = "uregtest"
)

func saplingHRP(n Network) string {
	switch n {
	case Testnet:
		return saplingHRPTestnet
	case Regtest:
		return saplingHRPRegtest
	default:
		return saplingHRPMainnet
	}
}

func unifiedHRP(n Network) string {
	switch n {
	case Testnet:
		return unifiedHRPTestnet
	case Regtest:
		return unifiedHRPRegtest
	default:
		return unifiedHRPMainnet
	}
}

// saplingNetwork maps a decoded HRP back to the network it belongs to.
func saplingNetwork(hrp string) (Network, bool) {
	switch hrp {
	case saplingHRPMainnet:
		return Mainnet, true
	case saplingHRPTestnet:
		return Testnet, true
	case saplingHRPRegtest:
		return Regtest, true
	}
	return 0, false
}

func unifiedNetwork(hrp string) (Network, bool) {
	switch hrp {
	case unifiedHRPMainnet:
		return Mainnet, true
	case unifiedHRPTestnet:
		return Testnet, true
	case unifiedHRPRegtest:
		return Regtest, true
	}
	return 0, false
}

func transparentPrefix(n Network, script ScriptType) [2]byte {
	if n == Mainnet {
		if script == P2SH {
			return mainnetP2SHPrefix
		}
		return mainnetP2PKHPrefix
	}
	if script == P2SH {
		return testnetP2SHPrefix
	}
	return testnetP2PKHPrefix
}

// transparentNetwork resolves a decoded 2-byte version prefix to the network
// and script type it encodes. Testnet and regtest share prefixes; the testnet
// value is returned and the caller reconciles against the expected network.
func transparentNetwork(prefix [2]byte) (Network, ScriptType, bool) {
	switch prefix {
	case mainnetP2PKHPrefix:
		return Mainnet, P2PKH, true
	case mainnetP2SHPrefix:
		return Mainnet, P2SH, true
	case testnetP2PKHPrefix:
		return Testnet, P2PKH, true
	case testnetP2SHPrefix:
		return Testnet, P2SH, true
	}
	return 0, 0, false
}
