package outbox

import "time"

// Submitter sends one submission to the chain-relay and reports whether
// it was accepted.
type Submitter func(Submission) error

// Redrive repeatedly submits the outbox's next unconfirmed entry,
// backing off between attempts using clock, until stop fires. A
// submission failure advances unfinalizedNonce (skip-and-gap); the failed
// entry stays first in line and is submitted again on the next attempt,
// so entries behind it wait until it is finalized.
func (o *Outbox) Redrive(clock Clock, backoff time.Duration, submit Submitter, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		sub, ok := o.NextUnconfirmed()
		if !ok {
			select {
			case <-clock.After(backoff):
			case <-stop:
				return
			}
			continue
		}

		if err := submit(sub); err != nil {
			o.OnFailure()
		}

		select {
		case <-clock.After(backoff):
		case <-stop:
			return
		}
	}
}
