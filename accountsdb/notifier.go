// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsdb

import "sync"

const subscriberBuffer = 64

// Notifier fans persisted batches out to state-sync/streaming subscribers.
// Publishing never blocks the commit path: a subscriber that falls more than
// subscriberBuffer batches behind loses the oldest ones.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan Batch]struct{}
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan Batch]struct{})}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel.
func (n *Notifier) Subscribe() (<-chan Batch, func()) {
	ch := make(chan Batch, subscriberBuffer)

	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if _, ok := n.subs[ch]; ok {
			delete(n.subs, ch)
			close(ch)
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the batch to all subscribers without blocking.
func (n *Notifier) Publish(b Batch) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs {
		select {
		case ch <- b:
		default:
			// lagging subscriber, drop its oldest batch
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- b:
			default:
			}
			logger.Warn("subscriber lagging, dropped batch")
		}
	}
}

type notifyingStore struct {
	Store
	notifier *Notifier
}

// WithNotifier wraps a store so every successfully persisted batch is
// published to the notifier's subscribers.
func WithNotifier(s Store, n *Notifier) Store {
	return &notifyingStore{Store: s, notifier: n}
}

func (s *notifyingStore) Put(b Batch) error {
	if err := s.Store.Put(b); err != nil {
		return err
	}
	s.notifier.Publish(b)
	return nil
}
