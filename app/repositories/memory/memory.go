// Package memory implements the repositories in process memory. It backs the
// "memory" store driver and the service and API tests.
//
// Every store can be told to fail a named operation, which is how tests
// exercise the partial-failure paths of the two-step writes:
//
//	set := memory.New()
//	set.Parcels.FailOn("set_payment_status", errors.New("primary stepped down"))
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
)

// Stores holds one store per collection.
type Stores struct {
	Parcels  *ParcelStore
	Payments *PaymentStore
	Tracking *TrackingStore
	Users    *UserStore
	Riders   *RiderStore
	Cascades *CascadeStore
}

// New returns empty stores.
func New() *Stores {
	return &Stores{
		Parcels:  &ParcelStore{},
		Payments: &PaymentStore{},
		Tracking: &TrackingStore{},
		Users:    &UserStore{},
		Riders:   &RiderStore{},
		Cascades: &CascadeStore{},
	}
}

// Set exposes the stores through the repository interfaces.
func (s *Stores) Set() repositories.Set {
	return repositories.Set{
		Parcels:  s.Parcels,
		Payments: s.Payments,
		Tracking: s.Tracking,
		Users:    s.Users,
		Riders:   s.Riders,
		Cascades: s.Cascades,
	}
}

// faults holds injected errors by operation name.
type faults struct {
	mu   sync.Mutex
	errs map[string]error
}

// FailOn makes every later call of op return err. A nil err clears it.
func (f *faults) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

func (f *faults) fault(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

func copyFields(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func hasStatus(statuses []models.RiderStatus, s models.RiderStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func sortStable[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
