// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package executor provides the built-in native-transfer executor used in
// solo mode and in tests. It settles nonce, gas fee and value transfer per
// transaction and leaves contract bytecode to an external engine.
package executor

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/ledger"
	"github.com/korachain/kora/log"
	"github.com/korachain/kora/state"
	"github.com/korachain/kora/store"
	"github.com/korachain/kora/tx"
)

var logger = log.WithContext("pkg", "executor")

// transferTopic marks the synthetic log emitted for each value transfer.
var transferTopic = kora.BytesToBytes32([]byte("kora.native.transfer"))

// Executor executes blocks of native transfers deterministically.
type Executor struct{}

// New creates the native transfer executor.
func New() *Executor {
	return &Executor{}
}

// Execute runs every transaction in order against the overlay. A
// transaction that fails its checks is settled as reverted: the fee is
// still charged and the nonce still advances, so the block remains
// deterministic across re-execution.
func (e *Executor) Execute(overlay *state.Overlay, ectx *ledger.ExecutionContext, txs tx.Transactions) (*ledger.ExecutionOutcome, error) {
	var (
		gasUsed  uint64
		receipts = make(tx.Receipts, 0, len(txs))
	)

	for _, trx := range txs {
		receipt, used, err := e.executeOne(overlay, ectx, trx)
		if err != nil {
			return nil, err
		}
		gasUsed += used
		if gasUsed > ectx.GasLimit {
			return nil, errors.Errorf("block gas limit exceeded: %d > %d", gasUsed, ectx.GasLimit)
		}
		receipts = append(receipts, receipt)
	}

	return &ledger.ExecutionOutcome{
		Changes:  overlay.Changes(),
		GasUsed:  gasUsed,
		Receipts: receipts,
	}, nil
}

func (e *Executor) executeOne(overlay *state.Overlay, ectx *ledger.ExecutionContext, trx *tx.Transaction) (*tx.Receipt, uint64, error) {
	origin, err := trx.Origin()
	if err != nil {
		return nil, 0, errors.Wrap(err, "recover origin")
	}

	sender, err := overlay.GetAccount(origin)
	if err != nil {
		return nil, 0, err
	}
	if sender == nil {
		sender = store.NewAccount()
	} else {
		sender = sender.Copy()
	}
	if trx.Nonce() != sender.Nonce {
		return nil, 0, errors.Errorf("nonce mismatch: tx %d, account %d", trx.Nonce(), sender.Nonce)
	}

	intrinsic, err := trx.IntrinsicGas()
	if err != nil {
		return nil, 0, err
	}
	gasPrice := trx.EffectiveGasPrice(ectx.BaseFee)
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(intrinsic))

	receipt := &tx.Receipt{
		TxID:    trx.ID(),
		GasUsed: intrinsic,
	}

	// the fee is charged whether or not the transfer lands
	total := new(big.Int).Add(fee, trx.Value())
	if sender.Balance.Cmp(total) < 0 {
		receipt.Reverted = true
		if sender.Balance.Cmp(fee) < 0 {
			return nil, 0, errors.Errorf("insufficient balance for fee: have %v, need %v", sender.Balance, fee)
		}
		sender.Balance = new(big.Int).Sub(sender.Balance, fee)
	} else {
		sender.Balance = new(big.Int).Sub(sender.Balance, total)
	}
	sender.Nonce++
	overlay.PutAccount(origin, sender)

	if !receipt.Reverted && trx.To() != nil && trx.Value().Sign() > 0 {
		to := *trx.To()
		recipient, err := overlay.GetAccount(to)
		if err != nil {
			return nil, 0, err
		}
		if recipient == nil {
			recipient = store.NewAccount()
		} else {
			recipient = recipient.Copy()
		}
		recipient.Balance = new(big.Int).Add(recipient.Balance, trx.Value())
		overlay.PutAccount(to, recipient)

		receipt.Logs = append(receipt.Logs, &tx.Log{
			Address: to,
			Topics:  []kora.Bytes32{transferTopic, addressTopic(origin)},
			Data:    trx.Value().Bytes(),
		})
	}

	if !ectx.Beneficiary.IsZero() {
		beneficiary, err := overlay.GetAccount(ectx.Beneficiary)
		if err != nil {
			return nil, 0, err
		}
		if beneficiary == nil {
			beneficiary = store.NewAccount()
		} else {
			beneficiary = beneficiary.Copy()
		}
		beneficiary.Balance = new(big.Int).Add(beneficiary.Balance, fee)
		overlay.PutAccount(ectx.Beneficiary, beneficiary)
	}

	logger.Trace("tx executed", "id", trx.ID(), "gas", intrinsic, "reverted", receipt.Reverted)
	return receipt, intrinsic, nil
}

func addressTopic(addr kora.Address) kora.Bytes32 {
	var topic kora.Bytes32
	copy(topic[12:], addr.Bytes())
	return topic
}
