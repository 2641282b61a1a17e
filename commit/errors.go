// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commit

import "github.com/pkg/errors"

// ErrUnhandledRollback the reconciler met an outcome or rollback descriptor
// it has no persistence rule for. This is a programming error and must
// surface loudly rather than silently no-op.
var ErrUnhandledRollback = errors.New("unhandled rollback shape")

// IsErrUnhandledRollback reports whether err is an unhandled rollback shape.
func IsErrUnhandledRollback(err error) bool {
	return errors.Cause(err) == ErrUnhandledRollback
}
