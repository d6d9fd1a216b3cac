package types

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/rlp"
)

// Signer derives senders from signed transactions and produces the values
// stored in the signature fields.
type Signer interface {
	// Sender recovers the address that signed the transaction.
	Sender(tx *Transaction) (Address, error)

	// SigHash returns the hash the sender signs.
	SigHash(tx *Transaction) Hash
}

// HomesteadSigner implements pre-EIP-155 signing: V is 27 or 28 and S must
// lie in the lower half of the curve order.
type HomesteadSigner struct{}

// SigHash returns the hash to be signed: keccak256 of the RLP of the six
// unsigned fields.
func (HomesteadSigner) SigHash(tx *Transaction) Hash {
	return tx.SigHash()
}

// Sender recovers the transaction sender. The result is cached on the
// transaction.
func (hs HomesteadSigner) Sender(tx *Transaction) (Address, error) {
	if cached := tx.from.Load(); cached != nil {
		return *cached, nil
	}
	v, r, s := tx.RawSignatureValues()
	if v == nil || !v.IsUint64() {
		return Address{}, ErrInvalidSig
	}
	vb := v.Uint64()
	if vb != 27 && vb != 28 {
		return Address{}, ErrInvalidSig
	}
	recid := byte(vb - 27)
	if !crypto.ValidateSignatureValues(recid, r, s, true) {
		return Address{}, ErrInvalidSig
	}

	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = recid

	hash := hs.SigHash(tx)
	pub, err := crypto.Ecrecover(hash.Bytes(), sig)
	if err != nil {
		return Address{}, err
	}
	addr := BytesToAddress(crypto.PubkeyBytesToAddress(pub))
	tx.from.Store(&addr)
	return addr, nil
}

// SignTx signs the transaction with the given key and returns the signed
// copy.
func SignTx(tx *Transaction, signer Signer, priv *secp256k1.PrivateKey) (*Transaction, error) {
	hash := signer.SigHash(tx)
	sig, err := crypto.Sign(hash.Bytes(), priv)
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(sig)
}

// KeyAddress returns the account address controlled by the private key.
func KeyAddress(priv *secp256k1.PrivateKey) Address {
	return BytesToAddress(crypto.PubkeyToAddress(priv.PubKey()))
}

// createAddressData is the RLP list hashed for contract address
// derivation.
type createAddressData struct {
	Sender Address
	Nonce  uint64
}

// CreateAddress derives the address of a contract created by sender with
// the given nonce: keccak256(rlp([sender, nonce]))[12:].
func CreateAddress(sender Address, nonce uint64) Address {
	enc, err := rlp.EncodeToBytes(&createAddressData{Sender: sender, Nonce: nonce})
	if err != nil {
		panic("types: " + err.Error())
	}
	return BytesToAddress(crypto.Keccak256(enc)[12:])
}
