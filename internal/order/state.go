package order

import "fmt"

type State string

const (
	StateBasket    State = "basket"
	StateNew       State = "new"
	StateConfirmed State = "confirmed"
	StateAssembled State = "assembled"
	StateSent      State = "sent"
	StateDelivered State = "delivered"
	StateCanceled  State = "canceled"
)

var allStates = []State{
	StateBasket, StateNew, StateConfirmed, StateAssembled,
	StateSent, StateDelivered, StateCanceled,
}

func ParseState(s string) (State, error) {
	for _, st := range allStates {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidState.With(s)
}

func (s State) IsTerminal() bool {
	return s == StateDelivered || s == StateCanceled
}

// CanShopTransition reports whether a shop may move an order from one state
// to another. Basket is entered only on creation and left only by checkout.
func CanShopTransition(from, to State) error {
	switch {
	case from == StateBasket || to == StateBasket:
		return ErrInvalidTransition.With(fmt.Sprintf("%s -> %s: basket is managed by the buyer", from, to))
	case from.IsTerminal():
		return ErrInvalidTransition.With(fmt.Sprintf("%s -> %s: order is closed", from, to))
	case from == to:
		return ErrInvalidTransition.With(fmt.Sprintf("order is already %s", to))
	}
	return nil
}
