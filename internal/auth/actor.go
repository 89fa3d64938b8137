package auth

// Role classifies platform accounts.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProducer Role = "producer"
	RoleBuyer    Role = "buyer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProducer, RoleBuyer:
		return true
	}
	return false
}

// Actor is the authenticated principal behind a request.
type Actor struct {
	ID   int64
	Role Role
}

// CanUpdateItem reports whether the actor may transition an order item owned
// by producerID. Only that producer or an admin may.
func (a Actor) CanUpdateItem(producerID int64) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == RoleProducer && a.ID == producerID
}

// CanViewOrder reports whether the actor may read an order. Buyers see their
// own orders, producers see orders containing at least one of their items,
// admins see everything.
func (a Actor) CanViewOrder(buyerID int64, producerIDs []int64) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleBuyer:
		return a.ID == buyerID
	case RoleProducer:
		for _, id := range producerIDs {
			if id == a.ID {
				return true
			}
		}
	}
	return false
}
