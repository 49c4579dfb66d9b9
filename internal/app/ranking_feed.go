package app

import (
	"sync"

	"formrank-service/internal/domain"
)

// RankingFeed fans ranking snapshots out to live subscribers (the websocket
// stream). It carries no ranking state itself; publishers hand it fresh
// snapshots after each committed submission.
type RankingFeed struct {
	mu   sync.Mutex
	subs map[chan []domain.RankingEntry]struct{}
}

func NewRankingFeed() *RankingFeed {
	return &RankingFeed{subs: make(map[chan []domain.RankingEntry]struct{})}
}

// Subscribe returns a channel of ranking snapshots. The caller must invoke
// the returned cancel function to avoid leaks.
func (f *RankingFeed) Subscribe() (<-chan []domain.RankingEntry, func()) {
	ch := make(chan []domain.RankingEntry, 8)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber. Slow consumers lose the
// oldest queued snapshot rather than blocking the publisher.
func (f *RankingFeed) Publish(entries []domain.RankingEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- entries:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
}

// SubscriberCount reports how many live subscribers are attached.
func (f *RankingFeed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
