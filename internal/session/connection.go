package session

//go:generate mockgen -source=connection.go -destination=mocks/mock_connection.go -package=mocks

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}
