package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleProducer.Valid())
	assert.True(t, RoleBuyer.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestCanUpdateItem(t *testing.T) {
	tests := []struct {
		name       string
		actor      Actor
		producerID int64
		want       bool
	}{
		{"owning producer", Actor{ID: 7, Role: RoleProducer}, 7, true},
		{"other producer", Actor{ID: 8, Role: RoleProducer}, 7, false},
		{"admin", Actor{ID: 1, Role: RoleAdmin}, 7, true},
		{"buyer", Actor{ID: 7, Role: RoleBuyer}, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.CanUpdateItem(tt.producerID))
		})
	}
}

func TestCanViewOrder(t *testing.T) {
	producers := []int64{20, 21}
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"buyer owns order", Actor{ID: 10, Role: RoleBuyer}, true},
		{"other buyer", Actor{ID: 11, Role: RoleBuyer}, false},
		{"producer with item", Actor{ID: 21, Role: RoleProducer}, true},
		{"producer without item", Actor{ID: 99, Role: RoleProducer}, false},
		{"admin", Actor{ID: 1, Role: RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.CanViewOrder(10, producers))
		})
	}
}
