package domain

// Operation names a state-changing escrow action.
type Operation string

const (
	OpConfirmDeposit Operation = "confirm_deposit"
	OpMarkPaid       Operation = "mark_paid"
	OpSellerConfirm  Operation = "seller_confirm"
	OpSellerReject   Operation = "seller_reject"
	OpSubmitDelivery Operation = "submit_delivery"
	OpRequestRelease Operation = "request_release"
	OpReleaseFunds   Operation = "release_funds"
)

var operationText = map[Operation]string{
	OpConfirmDeposit: "confirm deposit",
	OpMarkPaid:       "mark escrow paid",
	OpSellerConfirm:  "confirm escrow",
	OpSellerReject:   "reject escrow",
	OpSubmitDelivery: "submit delivery",
	OpRequestRelease: "request release",
	OpReleaseFunds:   "release funds",
}

func (o Operation) String() string {
	if s, ok := operationText[o]; ok {
		return s
	}
	return string(o)
}

// Transition is one row of the escrow state machine: who may apply it, from
// which statuses, and the status it produces.
type Transition struct {
	Op    Operation
	Actor Party
	From  []Status
	To    Status
}

// transitions is the full lookup table. Nothing outside it may change status.
var transitions = map[Operation]Transition{
	OpConfirmDeposit: {
		Op:    OpConfirmDeposit,
		Actor: PartyBuyer,
		From:  []Status{StatusPendingDeposit},
		To:    StatusFundsInEscrow,
	},
	OpMarkPaid: {
		Op:    OpMarkPaid,
		Actor: PartyBuyer,
		From:  allExcept(StatusPaid, StatusCompleted, StatusReleased),
		To:    StatusPaid,
	},
	OpSellerConfirm: {
		Op:    OpSellerConfirm,
		Actor: PartySeller,
		From:  []Status{StatusPending, StatusAwaitingConfirmation},
		To:    StatusConfirmed,
	},
	OpSellerReject: {
		Op:    OpSellerReject,
		Actor: PartySeller,
		From:  allExcept(StatusRejected, StatusCancelled, StatusConfirmed, StatusReleased),
		To:    StatusRejected,
	},
	OpSubmitDelivery: {
		Op:    OpSubmitDelivery,
		Actor: PartySeller,
		From:  []Status{StatusConfirmed, StatusPaid, StatusAwaitingDelivery},
		To:    StatusDelivered,
	},
	OpRequestRelease: {
		Op:    OpRequestRelease,
		Actor: PartySeller,
		From:  []Status{StatusDelivered, StatusConfirmed, StatusPaid},
		To:    StatusReleaseRequested,
	},
	OpReleaseFunds: {
		Op:    OpReleaseFunds,
		Actor: PartyBuyer,
		From:  []Status{StatusPaid},
		To:    StatusReleased,
	},
}

func allExcept(excluded ...Status) []Status {
	skip := make(map[Status]struct{}, len(excluded))
	for _, s := range excluded {
		skip[s] = struct{}{}
	}
	out := make([]Status, 0, len(AllStatuses))
	for _, s := range AllStatuses {
		if _, ok := skip[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// TransitionFor returns the table row for op.
func TransitionFor(op Operation) (Transition, bool) {
	t, ok := transitions[op]
	if !ok {
		return Transition{}, false
	}
	from := make([]Status, len(t.From))
	copy(from, t.From)
	t.From = from
	return t, true
}

// Allows reports whether the transition may be applied to an escrow in status s.
func (t Transition) Allows(s Status) bool {
	for _, allowed := range t.From {
		if allowed == s {
			return true
		}
	}
	return false
}

// CanApply reports whether op is a valid transition out of s.
func (s Status) CanApply(op Operation) bool {
	t, ok := transitions[op]
	return ok && t.Allows(s)
}
