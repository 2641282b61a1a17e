// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commit

import (
	"github.com/pkg/errors"

	"github.com/magicblock-labs/solana-upgrade-v3/accountsdb"
	"github.com/magicblock-labs/solana-upgrade-v3/log"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
	"github.com/magicblock-labs/solana-upgrade-v3/state"
)

var logger = log.WithContext("pkg", "commit")

// Reconciler decides, per processed transaction, which accounts get
// persisted and in what shape.
type Reconciler struct {
	state *state.State
	store accountsdb.Store
}

// NewReconciler creates a reconciler over the given state and store.
func NewReconciler(st *state.State, store accountsdb.Store) *Reconciler {
	return &Reconciler{state: st, store: store}
}

// Receipt reports what a commit persisted.
type Receipt struct {
	Persisted []solana.Address
	Failed    bool
}

// Commit reconciles one processed-transaction outcome: it builds the
// persistence set, asserts account integrity invariants, writes the set as
// one atomic batch and advances the in-memory cells.
//
// Violations abort this transaction's commit only; the store write is not
// retried here, its error surfaces to the caller.
func (r *Reconciler) Commit(outcome Outcome, replay bool) (*Receipt, error) {
	switch o := outcome.(type) {
	case Executed:
		if o.Succeeded {
			return r.commitExecuted(o, replay)
		}
		return r.commitExecutionFailed(o, replay)
	case FeesOnly:
		return r.commitFeesOnly(o, replay)
	case NotLoadable:
		logger.Debug("transaction not loadable, nothing persisted", "err", o.Err)
		metricCommitCount().AddWithLabel(1, map[string]string{"kind": "not_loadable"})
		r.state.ResetPending()
		return &Receipt{Failed: true}, nil
	default:
		metricCommitRejected().Add(1)
		return nil, errors.WithMessagef(ErrUnhandledRollback, "outcome %T", outcome)
	}
}

// commitExecuted persists the write-set of a successful transaction,
// filtering out clean accounts. Privileged accounts are persisted
// unconditionally, and delegated or undelegating accounts are never dropped
// by the dirty filter.
func (r *Reconciler) commitExecuted(o Executed, replay bool) (*Receipt, error) {
	var (
		entries []accountsdb.Entry
		bypass  bool
	)
	for _, w := range o.WriteSet {
		flags := r.state.Flags(w.Addr)
		merged := w.Acc.Copy()
		merged.Flags = flags

		base, known := r.state.Baseline(w.Addr)
		dirty := !known || !merged.Equal(&base)
		if !dirty && !flags.Privileged() && flags.Evictable() {
			continue
		}
		if flags.Privileged() {
			bypass = true
		}
		entries = append(entries, accountsdb.Entry{Addr: w.Addr, Acc: merged})
	}

	if err := r.assertConfinement(entries); err != nil {
		return nil, err
	}
	if err := r.persist(entries, replay, bypass); err != nil {
		return nil, err
	}
	metricCommitCount().AddWithLabel(1, map[string]string{"kind": "executed"})
	return &Receipt{Persisted: addresses(entries)}, nil
}

// commitExecutionFailed persists only the designated fee payer, with fees
// already deducted during the load phase. All other state changes are
// discarded: either the whole write-set commits, or only the fee debit
// survives.
func (r *Reconciler) commitExecutionFailed(o Executed, replay bool) (*Receipt, error) {
	if len(o.WriteSet) == 0 {
		metricCommitRejected().Add(1)
		return nil, errors.WithMessage(ErrUnhandledRollback, "failed transaction without fee payer")
	}
	entries := r.mergeFlags(o.WriteSet[0])

	if err := r.assertConfinement(entries); err != nil {
		return nil, err
	}
	if err := r.persist(entries, replay, false); err != nil {
		return nil, err
	}
	metricCommitCount().AddWithLabel(1, map[string]string{"kind": "executed_failed"})
	return &Receipt{Persisted: addresses(entries), Failed: true}, nil
}

// commitFeesOnly persists exactly the accounts named by the rollback
// descriptor. All three shapes are handled explicitly; an unknown shape is a
// loud error, never a silent no-op.
func (r *Reconciler) commitFeesOnly(o FeesOnly, replay bool) (*Receipt, error) {
	var entries []accountsdb.Entry
	switch rb := o.Rollback.(type) {
	case RollbackFeePayer:
		entries = r.mergeFlags(rb.FeePayer)
	case RollbackNonceSame:
		entries = r.mergeFlags(rb.Account)
	case RollbackNonceSeparate:
		entries = r.mergeFlags(rb.Nonce, rb.FeePayer)
	default:
		metricCommitRejected().Add(1)
		return nil, errors.WithMessagef(ErrUnhandledRollback, "rollback %T", o.Rollback)
	}

	if err := r.assertConfinement(entries); err != nil {
		return nil, err
	}
	if err := r.persist(entries, replay, false); err != nil {
		return nil, err
	}
	metricCommitCount().AddWithLabel(1, map[string]string{"kind": "fee_only"})
	return &Receipt{Persisted: addresses(entries), Failed: true}, nil
}

// mergeFlags builds persistence entries carrying the cells' current custody
// flags rather than whatever the executor left in the write-set copies.
func (r *Reconciler) mergeFlags(ws ...WriteAccount) []accountsdb.Entry {
	entries := make([]accountsdb.Entry, 0, len(ws))
	for _, w := range ws {
		merged := w.Acc.Copy()
		merged.Flags = r.state.Flags(w.Addr)
		entries = append(entries, accountsdb.Entry{Addr: w.Addr, Acc: merged})
	}
	return entries
}

// assertConfinement verifies the balance confinement invariant for every
// account about to be persisted, diffing against the last persisted
// baseline.
func (r *Reconciler) assertConfinement(entries []accountsdb.Entry) error {
	for i := range entries {
		entry := &entries[i]
		base, known := r.state.Baseline(entry.Addr)
		if !known {
			continue
		}
		if err := entry.Acc.Flags.CheckConfinement(base.Lamports, entry.Acc.Lamports); err != nil {
			metricCommitRejected().Add(1)
			r.state.ResetPending()
			logger.Warn("commit rejected", "addr", entry.Addr, "err", err)
			return errors.WithMessagef(err, "account %s", entry.Addr)
		}
	}
	return nil
}

// persist writes the batch and, on success, advances cells and baselines and
// discards pending mutations.
func (r *Reconciler) persist(entries []accountsdb.Entry, replay, bypass bool) error {
	metricPersistSetSizes().Observe(int64(len(entries)))
	if len(entries) > 0 {
		if err := r.store.Put(accountsdb.Batch{
			Entries:          entries,
			Replay:           replay,
			PrivilegedBypass: bypass,
		}); err != nil {
			return errors.Wrap(err, "persist batch")
		}
	}
	for i := range entries {
		r.state.MarkPersisted(entries[i].Addr, entries[i].Acc)
	}
	r.state.ResetPending()
	return nil
}

func addresses(entries []accountsdb.Entry) []solana.Address {
	addrs := make([]solana.Address, 0, len(entries))
	for i := range entries {
		addrs = append(addrs, entries[i].Addr)
	}
	return addrs
}
