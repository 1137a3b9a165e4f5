// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

// badTxError is the error type when the tx is malformed and can never become
// valid, e.g. a broken signature or a wrong chain tag.
type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}

// txRejectedError is the error type for txs that are well formed but not
// acceptable right now, e.g. a stale nonce or a full pool.
type txRejectedError struct {
	msg string
}

func (e txRejectedError) Error() string {
	return "tx rejected: " + e.msg
}

// IsBadTx returns whether the error indicates a malformed tx.
func IsBadTx(err error) bool {
	_, ok := err.(badTxError)
	return ok
}

// IsTxRejected returns whether the error indicates a rejected tx.
func IsTxRejected(err error) bool {
	_, ok := err.(txRejectedError)
	return ok
}
