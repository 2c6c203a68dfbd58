package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/artifacts"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/blockchain"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/fs"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/interactive"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/signer"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/verification"
	"github.com/trebuchet-org/socket-deployer/internal/adapters/watcher"
	"github.com/trebuchet-org/socket-deployer/internal/usecase"
)

// FSSet provides the file-backed ledgers
var FSSet = wire.NewSet(
	fs.NewAddressStoreAdapter,
	wire.Bind(new(usecase.AddressStore), new(*fs.AddressStoreAdapter)),

	fs.NewVerificationStoreAdapter,
	wire.Bind(new(usecase.VerificationStore), new(*fs.VerificationStoreAdapter)),
)

// BlockchainSet provides RPC readers and the transaction submitter
var BlockchainSet = wire.NewSet(
	blockchain.NewClientPool,

	blockchain.NewReader,
	wire.Bind(new(usecase.ChainReader), new(*blockchain.Reader)),

	blockchain.NewSubmitter,
	wire.Bind(new(usecase.TxSubmitter), new(*blockchain.Submitter)),

	blockchain.NewChecker,
	wire.Bind(new(usecase.CodeChecker), new(*blockchain.Checker)),
)

// SignerSet provides key material and the watcher envelope signer
var SignerSet = wire.NewSet(
	signer.NewProvider,
	wire.Bind(new(usecase.SignerProvider), new(*signer.Provider)),
	wire.Bind(new(blockchain.KeySource), new(*signer.Provider)),
	wire.Bind(new(watcher.KeySource), new(*signer.Provider)),

	watcher.NewEnvelopeSigner,
	wire.Bind(new(usecase.EnvelopeSigner), new(*watcher.EnvelopeSigner)),
)

// ArtifactSet provides compiled contracts and explorer verification
var ArtifactSet = wire.NewSet(
	artifacts.NewLoader,
	wire.Bind(new(usecase.ArtifactLoader), new(*artifacts.Loader)),

	verification.NewInternalVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.InternalVerifier)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),

	interactive.NewSelectorAdapter,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	BlockchainSet,
	SignerSet,
	ArtifactSet,
	InteractiveSet,
)
