package commands_test

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/vendor"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// memStore is an in-memory store with serialisable transactions: an open transaction
// holds txMu until it ends, which gives every transaction the effect of locking the
// order row. Reads outside a transaction see committed state only.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex
	state  memState

	// assignmentUpdateErr, when set, fails every assignment update.
	assignmentUpdateErr error
}

type memState struct {
	orders  map[kernel.UUID]order.Order
	vendors map[kernel.UUID]vendor.Vendor
	rows    []assignment.Assignment
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		orders:  map[kernel.UUID]order.Order{},
		vendors: map[kernel.UUID]vendor.Vendor{},
	}}
}

func (s memState) clone() memState {
	c := memState{
		orders:  make(map[kernel.UUID]order.Order, len(s.orders)),
		vendors: make(map[kernel.UUID]vendor.Vendor, len(s.vendors)),
		rows:    slices.Clone(s.rows),
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.vendors {
		c.vendors[k] = v
	}
	return c
}

// committed runs fn against committed state.
func (s *memStore) committed(fn func(st *memState) error) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return fn(&s.state)
}

func (s *memStore) order(id kernel.UUID) *order.Order {
	var o order.Order
	_ = s.committed(func(st *memState) error {
		o = st.orders[id]
		return nil
	})
	return &o
}

func (s *memStore) rowsOf(orderID kernel.UUID) []*assignment.Assignment {
	var out []*assignment.Assignment
	_ = s.committed(func(st *memState) error {
		for _, row := range st.rows {
			if row.OrderID().IsEqual(orderID) {
				cp := row
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out
}

// Factories.

func (s *memStore) Create() commands.UoW {
	return &memUoW{store: s}
}

type orderUoWFactory struct{ store *memStore }

func (f orderUoWFactory) Create() commands.OrderUoW { return &memUoW{store: f.store} }

type vendorUoWFactory struct{ store *memStore }

func (f vendorUoWFactory) Create() commands.VendorUoW { return &memUoW{store: f.store} }

type memUoW struct {
	store *memStore
	tx    *memState
}

func (u *memUoW) Begin(_ context.Context) error {
	if u.tx != nil {
		return nil
	}
	u.store.txMu.Lock()
	var snapshot memState
	_ = u.store.committed(func(st *memState) error {
		snapshot = st.clone()
		return nil
	})
	u.tx = &snapshot
	return nil
}

func (u *memUoW) Commit(_ context.Context) error {
	if u.tx == nil {
		return errors.New("no active transaction")
	}
	_ = u.store.committed(func(st *memState) error {
		*st = *u.tx
		return nil
	})
	u.tx = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *memUoW) Rollback(_ context.Context) error {
	if u.tx == nil {
		return errors.New("no active transaction")
	}
	u.tx = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *memUoW) run(fn func(st *memState) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}
	return u.store.committed(fn)
}

func (u *memUoW) OrderRepository() ports.OrderRepository { return memOrderRepo{u} }

func (u *memUoW) VendorRepository() ports.VendorRepository { return memVendorRepo{u} }

func (u *memUoW) AssignmentRepository() ports.AssignmentRepository { return memAssignmentRepo{u} }

type memOrderRepo struct{ uow *memUoW }

func (r memOrderRepo) Add(_ context.Context, o *order.Order) error {
	return r.uow.run(func(st *memState) error {
		if _, ok := st.orders[o.ID()]; ok {
			return fmt.Errorf("duplicate order %s", o.ID())
		}
		st.orders[o.ID()] = *o
		return nil
	})
}

func (r memOrderRepo) Update(_ context.Context, o *order.Order) error {
	return r.uow.run(func(st *memState) error {
		if _, ok := st.orders[o.ID()]; !ok {
			return errs.NewObjectNotFoundError("order", o.ID().String())
		}
		st.orders[o.ID()] = *o
		return nil
	})
}

func (r memOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	var out *order.Order
	err := r.uow.run(func(st *memState) error {
		o, ok := st.orders[id]
		if !ok {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		out = &o
		return nil
	})
	return out, err
}

func (r memOrderRepo) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r memOrderRepo) FindStrandedAssigned(_ context.Context, limit int) ([]kernel.UUID, error) {
	var out []kernel.UUID
	err := r.uow.run(func(st *memState) error {
		for id, o := range st.orders {
			if o.Status() != order.Assigned {
				continue
			}
			open := slices.ContainsFunc(st.rows, func(row assignment.Assignment) bool {
				return row.OrderID().IsEqual(id) && row.IsPushed()
			})
			if !open && len(out) < limit {
				out = append(out, id)
			}
		}
		return nil
	})
	return out, err
}

type memVendorRepo struct{ uow *memUoW }

func (r memVendorRepo) Add(_ context.Context, v *vendor.Vendor) error {
	return r.uow.run(func(st *memState) error {
		if _, ok := st.vendors[v.ID()]; ok {
			return fmt.Errorf("duplicate vendor %s", v.ID())
		}
		st.vendors[v.ID()] = *v
		return nil
	})
}

func (r memVendorRepo) Update(_ context.Context, v *vendor.Vendor) error {
	return r.uow.run(func(st *memState) error {
		if _, ok := st.vendors[v.ID()]; !ok {
			return errs.NewObjectNotFoundError("vendor", v.ID().String())
		}
		st.vendors[v.ID()] = *v
		return nil
	})
}

func (r memVendorRepo) Get(_ context.Context, id kernel.UUID) (*vendor.Vendor, error) {
	var out *vendor.Vendor
	err := r.uow.run(func(st *memState) error {
		v, ok := st.vendors[id]
		if !ok {
			return errs.NewObjectNotFoundError("vendor", id.String())
		}
		out = &v
		return nil
	})
	return out, err
}

func (r memVendorRepo) FindApprovedWithin(_ context.Context, box kernel.BoundingBox) ([]*vendor.Vendor, error) {
	var out []*vendor.Vendor
	err := r.uow.run(func(st *memState) error {
		for _, v := range st.vendors {
			loc := v.Location()
			if !v.IsApproved() ||
				loc.Latitude() < box.MinLat || loc.Latitude() > box.MaxLat ||
				loc.Longitude() < box.MinLon || loc.Longitude() > box.MaxLon {
				continue
			}
			cp := v
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

type memAssignmentRepo struct{ uow *memUoW }

func (r memAssignmentRepo) AddBatch(_ context.Context, rows []*assignment.Assignment) error {
	return r.uow.run(func(st *memState) error {
		for _, row := range rows {
			st.rows = append(st.rows, *row)
		}
		return nil
	})
}

func (r memAssignmentRepo) Update(_ context.Context, row *assignment.Assignment) error {
	if err := r.uow.store.assignmentUpdateErr; err != nil {
		return err
	}
	return r.uow.run(func(st *memState) error {
		for i := range st.rows {
			if !st.rows[i].ID().IsEqual(row.ID()) {
				continue
			}
			if !st.rows[i].IsPushed() {
				return errs.NewInvalidStateError("assignment", st.rows[i].Status().String(), "offer already answered")
			}
			st.rows[i] = *row
			return nil
		}
		return errs.NewObjectNotFoundError("assignment", row.ID().String())
	})
}

func (r memAssignmentRepo) GetPushed(_ context.Context, orderID, vendorID kernel.UUID) (*assignment.Assignment, error) {
	var out *assignment.Assignment
	err := r.uow.run(func(st *memState) error {
		for _, row := range st.rows {
			if row.IsPushed() && row.OrderID().IsEqual(orderID) && row.VendorID().IsEqual(vendorID) {
				cp := row
				out = &cp
				return nil
			}
		}
		return errs.NewObjectNotFoundError("offer", vendorID.String())
	})
	return out, err
}

func (r memAssignmentRepo) FindPushedByOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error) {
	all, err := r.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(row *assignment.Assignment) bool { return !row.IsPushed() }), nil
}

func (r memAssignmentRepo) FindByOrder(_ context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error) {
	var out []*assignment.Assignment
	err := r.uow.run(func(st *memState) error {
		for _, row := range st.rows {
			if row.OrderID().IsEqual(orderID) {
				cp := row
				out = append(out, &cp)
			}
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *assignment.Assignment) int {
		if c := a.PushedAt().Compare(b.PushedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.Metadata().Batch, b.Metadata().Batch)
	})
	return out, err
}

func (r memAssignmentRepo) FindOrdersWithExpiredOffers(_ context.Context, now time.Time, limit int) ([]kernel.UUID, error) {
	var out []kernel.UUID
	err := r.uow.run(func(st *memState) error {
		for _, row := range st.rows {
			if row.IsExpired(now) && !slices.ContainsFunc(out, row.OrderID().IsEqual) && len(out) < limit {
				out = append(out, row.OrderID())
			}
		}
		return nil
	})
	return out, err
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// publishedEvent is one notification captured by recordingDispatcher.
type publishedEvent struct {
	Channel string
	Event   string
	Payload map[string]any
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (d *recordingDispatcher) Publish(_ context.Context, channel, event string, payload map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, publishedEvent{Channel: channel, Event: event, Payload: payload})
	return d.err
}

func (d *recordingDispatcher) find(channel, event string) []publishedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []publishedEvent
	for _, e := range d.events {
		if e.Channel == channel && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
