// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

// fatalError marks faults after which the node must halt: a certified root
// that execution disagrees with, an out-of-order commit, or a failed store
// write. Masking any of these risks silent state divergence between
// validators.
type fatalError struct {
	err error
}

func (e fatalError) Error() string {
	return "ledger fatal: " + e.err.Error()
}

func (e fatalError) Unwrap() error {
	return e.err
}

func newFatalf(format string, args ...any) error {
	return fatalError{fmt.Errorf(format, args...)}
}

func wrapFatal(err error, msg string) error {
	return fatalError{errors.Wrap(err, msg)}
}

// IsFatal returns whether the error demands a node halt.
func IsFatal(err error) bool {
	var fe fatalError
	return errors.As(err, &fe)
}

// ErrUnknownSnapshot returned when the referenced block id has no staged
// snapshot and is not the durable anchor.
var ErrUnknownSnapshot = errors.New("unknown snapshot")
