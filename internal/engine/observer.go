package engine

//go:generate mockgen -source=observer.go -destination=mocks/mock_observer.go -package=mocks

// Observer is notified after every state change. Notifications are delivered
// in mutation order. The snapshot carries everything an observer needs;
// calling back into the engine from a notification can deadlock.
type Observer interface {
	// StateChanged receives a snapshot taken right after the mutation.
	StateChanged(state State)
	// MoveSound is called once for every applied move, human or AI.
	MoveSound()
}
