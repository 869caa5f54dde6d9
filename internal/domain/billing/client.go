package billing

import (
	"time"

	"github.com/google/uuid"
)

// Client is a read-only projection of the client record an invoice bills.
// Client management itself lives outside this service; only the name and
// email reached through the invoice relation matter here.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
