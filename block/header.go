// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"encoding/binary"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/korachain/kora/kora"
)

// Header contains block header data.
type Header struct {
	body headerBody

	cache struct {
		id atomic.Value
	}
}

// headerBody body of header.
type headerBody struct {
	ParentID     kora.Bytes32
	Number       uint64
	Timestamp    uint64
	Beneficiary  kora.Address
	GasLimit     uint64
	GasUsed      uint64
	BaseFee      *big.Int
	TxsRoot      kora.Bytes32
	StateRoot    kora.Bytes32
	ReceiptsRoot kora.Bytes32
}

// ParentID returns id of parent block.
func (h *Header) ParentID() kora.Bytes32 {
	return h.body.ParentID
}

// Number returns sequential number of this block.
func (h *Header) Number() uint64 {
	return h.body.Number
}

// Timestamp returns timestamp of this block.
func (h *Header) Timestamp() uint64 {
	return h.body.Timestamp
}

// Beneficiary returns the proposer address of this block.
func (h *Header) Beneficiary() kora.Address {
	return h.body.Beneficiary
}

// GasLimit returns gas limit of this block.
func (h *Header) GasLimit() uint64 {
	return h.body.GasLimit
}

// GasUsed returns gas used by txs in this block.
func (h *Header) GasUsed() uint64 {
	return h.body.GasUsed
}

// BaseFee returns the base fee of this block.
func (h *Header) BaseFee() *big.Int {
	if h.body.BaseFee == nil {
		return new(big.Int).SetUint64(kora.InitialBaseFee)
	}
	return new(big.Int).Set(h.body.BaseFee)
}

// TxsRoot returns merkle root of txs contained in this block.
func (h *Header) TxsRoot() kora.Bytes32 {
	return h.body.TxsRoot
}

// StateRoot returns account state merkle root just after this block being processed.
func (h *Header) StateRoot() kora.Bytes32 {
	return h.body.StateRoot
}

// ReceiptsRoot returns merkle root of tx receipts.
func (h *Header) ReceiptsRoot() kora.Bytes32 {
	return h.body.ReceiptsRoot
}

// ID computes the identifier of the block header.
// The first 4 bytes are replaced with the block number, for cheap height
// extraction from an id.
func (h *Header) ID() (id kora.Bytes32) {
	if cached := h.cache.id.Load(); cached != nil {
		return cached.(kora.Bytes32)
	}
	defer func() {
		binary.BigEndian.PutUint32(id[:4], uint32(h.body.Number))
		h.cache.id.Store(id)
	}()

	hw := crypto.NewKeccakState()
	rlp.Encode(hw, &h.body)
	hw.Read(id[:])
	return
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

// Number extracts the block number from a block id.
func Number(blockID kora.Bytes32) uint32 {
	// first 4 bytes are over written by block number (big endian).
	return binary.BigEndian.Uint32(blockID[:4])
}
