package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomKeys(t *testing.T) {
	t.Run("order room", func(t *testing.T) {
		room := OrderRoom("ord-42")
		assert.Equal(t, Room("order-ord-42"), room)
		assert.Equal(t, DomainOrder, room.Domain())
		assert.Equal(t, "ord-42", room.EntityID())
	})

	t.Run("restaurant room", func(t *testing.T) {
		room := RestaurantRoom("rest-7")
		assert.Equal(t, Room("restaurant-rest-7"), room)
		assert.Equal(t, DomainRestaurant, room.Domain())
		assert.Equal(t, "rest-7", room.EntityID())
	})

	t.Run("admin room", func(t *testing.T) {
		room := AdminRoom("adm-1")
		assert.Equal(t, DomainAdmin, room.Domain())
		assert.Equal(t, "adm-1", room.EntityID())
	})

	t.Run("superadmin room is fixed", func(t *testing.T) {
		assert.Equal(t, DomainSuperadmin, SuperadminRoom.Domain())
		assert.Empty(t, SuperadminRoom.EntityID())
	})

	t.Run("entity ids containing hyphens survive the round trip", func(t *testing.T) {
		room := OrderRoom("a-b-c-d")
		assert.Equal(t, "a-b-c-d", room.EntityID())
	})
}

func TestParseRoom(t *testing.T) {
	t.Run("accepts well formed keys", func(t *testing.T) {
		for _, key := range []string{"order-1", "restaurant-9", "admin-x", "superadmin"} {
			room, err := ParseRoom(key)
			require.NoError(t, err, "key %q", key)
			assert.True(t, room.Valid())
		}
	})

	t.Run("rejects malformed keys", func(t *testing.T) {
		for _, key := range []string{"", "order-", "restaurant-", "admin-", "kitchen-1", "superadmin-1x"} {
			_, err := ParseRoom(key)
			assert.Error(t, err, "key %q", key)
		}
	})
}
