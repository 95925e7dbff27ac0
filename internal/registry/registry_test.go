package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/notefill/internal/browser/session"
	"github.com/xkilldash9x/notefill/internal/domain"
)

func roster(t *testing.T, n int) []domain.Identity {
	t.Helper()
	out := make([]domain.Identity, n)
	for i := range out {
		id, err := domain.NewIdentity(fmt.Sprintf("用户%d", i), "", fmt.Sprintf("11010119900101%04d", i), "139")
		require.NoError(t, err)
		out[i] = id
	}
	return out
}

// sessionsByIndex projects the registry to index -> session ID.
func sessionsByIndex(r *Registry) map[int]string {
	out := make(map[int]string)
	for _, e := range r.Snapshot() {
		if e.Session != nil {
			out[e.Index] = e.Session.ID
		}
	}
	return out
}

func fill(t *testing.T, r *Registry, indices ...int) map[int]string {
	t.Helper()
	ids := make(map[int]string)
	for _, i := range indices {
		s := session.New("", "", 9222+i, "", nil, nil)
		require.NoError(t, r.Set(i, s))
		ids[i] = s.ID
	}
	return ids
}

func TestReindexAfterDelete(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		held    []int
		deleteK int
	}{
		{"middle", 4, []int{0, 1, 2, 3}, 1},
		{"first", 4, []int{0, 1, 2, 3}, 0},
		{"last", 4, []int{0, 1, 2, 3}, 3},
		{"sparse", 5, []int{0, 3, 4}, 2},
		{"only", 1, []int{0}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(roster(t, tc.size))
			require.NoError(t, err)
			before := fill(t, r, tc.held...)

			removed, ok := r.Remove(tc.deleteK)
			require.True(t, ok)
			assert.Equal(t, before[tc.deleteK], removed.ID)
			require.NoError(t, r.ReindexAfterDelete(tc.deleteK))

			want := make(map[int]string)
			for i, id := range before {
				switch {
				case i < tc.deleteK:
					want[i] = id
				case i > tc.deleteK:
					want[i-1] = id
				}
			}
			if diff := cmp.Diff(want, sessionsByIndex(r)); diff != "" {
				t.Errorf("sessions after deleting %d (-want +got):\n%s", tc.deleteK, diff)
			}
			assert.Equal(t, tc.size-1, r.Len())
		})
	}
}

func TestReindexAfterDelete_RequiresRemoval(t *testing.T) {
	r, err := New(roster(t, 3))
	require.NoError(t, err)
	fill(t, r, 1)

	err = r.ReindexAfterDelete(1)
	assert.ErrorIs(t, err, domain.ErrSessionStillHeld)
	assert.Equal(t, 3, r.Len(), "failed reindex leaves the roster intact")

	assert.ErrorIs(t, r.ReindexAfterDelete(7), domain.ErrIdentityNotFound)
}

func TestDeleteIdentity_MovesStateWithIdentity(t *testing.T) {
	ids := roster(t, 3)
	r, err := New(ids)
	require.NoError(t, err)
	held := fill(t, r, 1, 2)
	require.NoError(t, r.SetStateAt(1, domain.StateConnected))
	require.NoError(t, r.SetStateAt(2, domain.StateDone))

	gone, s, err := r.DeleteIdentity(1)
	require.NoError(t, err)
	assert.Equal(t, ids[1].ID, gone.ID)
	require.NotNil(t, s)
	assert.Equal(t, held[1], s.ID)

	assert.Equal(t, []domain.Identity{ids[0], ids[2]}, r.Identities())
	assert.Equal(t, domain.StateDone, r.State(1))
	got, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, held[2], got.ID)

	idx, ok := r.IndexOf(ids[2].ID)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = r.IndexOf(ids[1].ID)
	assert.False(t, ok)
}

func TestIDKeyedAccessSurvivesReindex(t *testing.T) {
	ids := roster(t, 3)
	r, err := New(ids)
	require.NoError(t, err)

	_, _, err = r.DeleteIdentity(0)
	require.NoError(t, err)

	// An operation that resolved ids[2] before the delete still lands on it.
	s := session.New(ids[2].ID, "", 9224, "", nil, nil)
	require.NoError(t, r.PutSession(ids[2].ID, s))
	r.SetState(ids[2].ID, domain.StateConnected)

	got, ok := r.Get(1)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, domain.StateConnected, r.State(1))

	assert.ErrorIs(t, r.PutSession(ids[0].ID, s), domain.ErrIdentityNotFound)
	r.SetState(ids[0].ID, domain.StateFailed) // ignored
}

func TestAddAndUpdate(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	idx, err := r.Add(domain.Identity{Name: "张三", IDNumber: "110", Phone: "139"})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	first, err := r.IdentityAt(0)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = r.Add(first)
	assert.Error(t, err, "duplicate id")

	_, err = r.Add(domain.Identity{Name: "缺少手机号", IDNumber: "1"})
	assert.Error(t, err)

	require.NoError(t, r.Update(0, domain.Identity{ID: "ignored", Name: "张三丰", IDNumber: "110", Phone: "139"}))
	updated, err := r.IdentityAt(0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "张三丰", updated.Name)
}

func TestOutOfRange(t *testing.T) {
	r, err := New(roster(t, 1))
	require.NoError(t, err)

	_, err = r.IdentityAt(1)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	_, ok := r.Get(-1)
	assert.False(t, ok)
	assert.Equal(t, domain.StateDisconnected, r.State(5))
	assert.Error(t, r.SetStateAt(5, domain.StateFailed))
	_, _, err = r.DeleteIdentity(3)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestConcurrentAccess(t *testing.T) {
	ids := roster(t, 8)
	r, err := New(ids)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id domain.Identity) {
			defer wg.Done()
			s := session.New(id.ID, "", 9222+i, "", nil, nil)
			assert.NoError(t, r.PutSession(id.ID, s))
			r.SetState(id.ID, domain.StateConnected)
			_ = r.Snapshot()
		}(i, id)
	}
	wg.Wait()

	for i := range ids {
		assert.Equal(t, domain.StateConnected, r.State(i))
	}
}
