package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio/collab/internal/domain"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	return map[string]Store{
		"gorm":   g,
		"memory": NewMemory(),
	}
}

func TestStore_AppendAssignsIdentity(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			msg, err := st.Append(context.Background(), "R1", "u1", "Alice", domain.RoleTeacher, "hello")
			require.NoError(t, err)

			assert.NotEmpty(t, msg.ID)
			assert.False(t, msg.Timestamp.IsZero())
			assert.Equal(t, domain.RoomID("R1"), msg.RoomID)
			assert.Equal(t, "hello", msg.Body)

			other, err := st.Append(context.Background(), "R1", "u1", "Alice", domain.RoleTeacher, "hello")
			require.NoError(t, err)
			assert.NotEqual(t, msg.ID, other.ID)
		})
	}
}

func TestStore_RecentOrderAndLimit(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, body := range []string{"one", "two", "three"} {
				_, err := st.Append(ctx, "R1", "u1", "Alice", domain.RoleStudent, body)
				require.NoError(t, err)
			}
			_, err := st.Append(ctx, "R2", "u2", "Bob", domain.RoleStudent, "other room")
			require.NoError(t, err)

			msgs, err := st.Recent(ctx, "R1", 10)
			require.NoError(t, err)
			require.Len(t, msgs, 3)
			// oldest first
			assert.Equal(t, "one", msgs[0].Body)
			assert.Equal(t, "three", msgs[2].Body)

			limited, err := st.Recent(ctx, "R1", 2)
			require.NoError(t, err)
			require.Len(t, limited, 2)
			assert.Equal(t, "two", limited[0].Body)
			assert.Equal(t, "three", limited[1].Body)

			empty, err := st.Recent(ctx, "R404", 10)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}
